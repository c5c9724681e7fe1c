package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"futures-bot/internal/exchange"
	"futures-bot/internal/validate"
)

func TestPlaceTimeSliced_ComputesSliceParameters(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)

	var waits []time.Duration
	d.sleep = func(ctx context.Context, wait time.Duration) error {
		waits = append(waits, wait)
		return nil
	}

	result, err := d.PlaceTimeSliced(context.Background(), "BTCUSDT", SideBuy, 1.0, 5, 300*time.Second)
	if err != nil {
		t.Fatalf("PlaceTimeSliced returned error: %v", err)
	}

	if diff := abs(result.PerOrderQty - 0.2); diff > 1e-9 {
		t.Errorf("expected per-order quantity 0.2, got %f", result.PerOrderQty)
	}
	if result.Wait != 60*time.Second {
		t.Errorf("expected wait 60s, got %s", result.Wait)
	}
	if !result.Complete {
		t.Errorf("expected Complete=true")
	}
	if result.Completed != 5 || result.Requested != 5 {
		t.Errorf("expected 5/5 completed, got %d/%d", result.Completed, result.Requested)
	}
	if got := client.count("CreateMarketOrder"); got != 5 {
		t.Errorf("expected 5 market orders, got %d", got)
	}
	if len(waits) != 4 {
		t.Fatalf("expected 4 pacing waits (none after last slice), got %d", len(waits))
	}
	for i, wait := range waits {
		if wait != 60*time.Second {
			t.Errorf("wait %d: expected 60s, got %s", i, wait)
		}
	}
}

func TestPlaceTimeSliced_HaltsOnSliceFailure(t *testing.T) {
	client := &mockOrderClient{
		marketFail: map[int]error{3: &exchange.APIError{Code: "InsufficientFunds", Message: "margin is insufficient"}},
	}
	d := newTestDispatcher(client)
	d.sleep = noopSleep

	result, err := d.PlaceTimeSliced(context.Background(), "BTCUSDT", SideSell, 1.0, 5, 300*time.Second)
	if err == nil {
		t.Fatalf("expected error from failing slice")
	}
	if result == nil {
		t.Fatalf("expected partial result alongside error")
	}

	if result.Completed != 2 {
		t.Errorf("expected 2 completed slices, got %d", result.Completed)
	}
	if submitted := result.Submitted(); len(submitted) != 2 {
		t.Errorf("expected 2 submitted orders, got %d", len(submitted))
	}
	if got := client.count("CreateMarketOrder"); got != 3 {
		t.Errorf("expected exactly 3 remote calls (no calls after failure), got %d", got)
	}
	if result.Complete {
		t.Errorf("expected Complete=false after halt")
	}

	last := result.Slices[len(result.Slices)-1]
	if last.State != SliceFailed || last.Index != 3 {
		t.Errorf("expected slice 3 in FAILED state, got index=%d state=%s", last.Index, last.State)
	}

	if _, ok := exchange.IsAPIError(err); !ok {
		t.Errorf("expected APIError to surface, got %v", err)
	}
}

func TestPlaceTimeSliced_RejectsInvalidPacing(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)

	if _, err := d.PlaceTimeSliced(context.Background(), "BTCUSDT", SideBuy, 1.0, 0, time.Minute); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("intervals=0: expected ErrInvalidInput, got %v", err)
	}
	if _, err := d.PlaceTimeSliced(context.Background(), "BTCUSDT", SideBuy, 1.0, 5, 0); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("duration=0: expected ErrInvalidInput, got %v", err)
	}
	if got := client.count("CreateMarketOrder"); got != 0 {
		t.Errorf("expected no remote calls on invalid input, got %d", got)
	}
}

func TestPlaceTimeSliced_AbortsWhenWaitInterrupted(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)
	d.sleep = func(ctx context.Context, wait time.Duration) error {
		return context.Canceled
	}

	result, err := d.PlaceTimeSliced(context.Background(), "BTCUSDT", SideBuy, 1.0, 5, 300*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Completed != 1 {
		t.Errorf("expected 1 completed slice before interrupt, got %d", result.Completed)
	}
	if got := client.count("CreateMarketOrder"); got != 1 {
		t.Errorf("expected no further orders after interrupt, got %d calls", got)
	}
}

func TestPlaceSyntheticOco_LimitLegFailureSkipsStopLeg(t *testing.T) {
	client := &mockOrderClient{
		limitErr: &exchange.APIError{Code: "InvalidOrder", Message: "price out of range"},
	}
	d := newTestDispatcher(client)

	result, err := d.PlaceSyntheticOco(context.Background(), "BTCUSDT", SideSell, 1.0, 52000, 48000, 47500)
	if err == nil {
		t.Fatalf("expected error when limit leg fails")
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
	if got := client.count("CreateStopLimitOrder"); got != 0 {
		t.Errorf("stop leg must not be attempted after limit failure, got %d calls", got)
	}
}

func TestPlaceSyntheticOco_PartialWhenStopLegFails(t *testing.T) {
	client := &mockOrderClient{
		stopErr: &exchange.APIError{Code: "InvalidOrder", Message: "would trigger immediately"},
	}
	d := newTestDispatcher(client)

	result, err := d.PlaceSyntheticOco(context.Background(), "BTCUSDT", SideSell, 1.0, 52000, 48000, 47500)
	if err != nil {
		t.Fatalf("partial OCO should not return error: %v", err)
	}
	if !result.Partial {
		t.Errorf("expected Partial=true")
	}
	if result.Stop != nil {
		t.Errorf("expected no stop leg in partial result")
	}
	if result.Limit.ID == "" {
		t.Errorf("expected limit leg order in partial result")
	}
}

func TestPlaceSyntheticOco_SplitsQuantityEvenly(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)

	result, err := d.PlaceSyntheticOco(context.Background(), "BTCUSDT", SideSell, 1.0, 52000, 48000, 47500)
	if err != nil {
		t.Fatalf("PlaceSyntheticOco returned error: %v", err)
	}
	if result.Partial {
		t.Errorf("expected Partial=false when both legs succeed")
	}
	if result.Stop == nil {
		t.Fatalf("expected stop leg present")
	}

	if len(client.quantities) != 2 {
		t.Fatalf("expected 2 leg orders, got %d", len(client.quantities))
	}
	for i, qty := range client.quantities {
		if diff := abs(qty - 0.5); diff > 1e-9 {
			t.Errorf("leg %d: expected quantity 0.5, got %f", i, qty)
		}
	}

	expected := []string{"CreateLimitOrder", "CreateStopLimitOrder"}
	if len(client.calls) != len(expected) {
		t.Fatalf("unexpected call count: got %d want %d", len(client.calls), len(expected))
	}
	for i, call := range expected {
		if client.calls[i] != call {
			t.Errorf("call %d mismatch: got %s want %s", i, client.calls[i], call)
		}
	}
}

func TestPlaceMarket_ValidatesBeforeNetwork(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)

	if _, err := d.PlaceMarket(context.Background(), "BTC", SideBuy, 1.0); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("short symbol: expected ErrInvalidInput, got %v", err)
	}
	if _, err := d.PlaceMarket(context.Background(), "BTCUSDT", SideBuy, -1); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("negative quantity: expected ErrInvalidInput, got %v", err)
	}
	if _, err := d.PlaceMarket(context.Background(), "BTCUSDT", Side("HOLD"), 1.0); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("bad side: expected ErrInvalidInput, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Errorf("expected no remote calls on invalid input, got %v", client.calls)
	}
}

func TestPlaceLimit_NormalizesSymbol(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)

	order, err := d.PlaceLimit(context.Background(), " btcusdt ", SideBuy, 0.5, 50000)
	if err != nil {
		t.Fatalf("PlaceLimit returned error: %v", err)
	}
	if order.Symbol != "BTCUSDT" {
		t.Errorf("expected normalized symbol BTCUSDT, got %q", order.Symbol)
	}
}

func TestOrderStatusAndCancel_RequireOrderID(t *testing.T) {
	client := &mockOrderClient{}
	d := newTestDispatcher(client)

	if _, err := d.OrderStatus(context.Background(), "BTCUSDT", ""); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("OrderStatus: expected ErrInvalidInput, got %v", err)
	}
	if _, err := d.Cancel(context.Background(), "BTCUSDT", ""); !errors.Is(err, validate.ErrInvalidInput) {
		t.Errorf("Cancel: expected ErrInvalidInput, got %v", err)
	}

	if _, err := d.OrderStatus(context.Background(), "BTCUSDT", "42"); err != nil {
		t.Errorf("OrderStatus passthrough failed: %v", err)
	}
	if _, err := d.Cancel(context.Background(), "BTCUSDT", "42"); err != nil {
		t.Errorf("Cancel passthrough failed: %v", err)
	}
}

func newTestDispatcher(client *mockOrderClient) *Dispatcher {
	d := NewDispatcher(client, nil)
	d.sleep = noopSleep
	return d
}

func noopSleep(ctx context.Context, wait time.Duration) error {
	return nil
}

type mockOrderClient struct {
	calls      []string
	quantities []float64

	marketCount int
	marketFail  map[int]error
	limitErr    error
	stopErr     error

	nextID int
}

func (m *mockOrderClient) stubOrder(symbol, side, orderType string, quantity float64) exchange.Order {
	m.nextID++
	return exchange.Order{
		ID:       fmt.Sprintf("%d", m.nextID),
		Symbol:   symbol,
		Side:     side,
		Type:     orderType,
		Quantity: quantity,
		Status:   "NEW",
	}
}

func (m *mockOrderClient) CreateMarketOrder(ctx context.Context, symbol, side string, quantity float64) (exchange.Order, error) {
	m.calls = append(m.calls, "CreateMarketOrder")
	m.quantities = append(m.quantities, quantity)
	m.marketCount++
	if err, ok := m.marketFail[m.marketCount]; ok {
		return exchange.Order{}, err
	}
	return m.stubOrder(symbol, side, "MARKET", quantity), nil
}

func (m *mockOrderClient) CreateLimitOrder(ctx context.Context, symbol, side string, quantity, price float64) (exchange.Order, error) {
	m.calls = append(m.calls, "CreateLimitOrder")
	m.quantities = append(m.quantities, quantity)
	if m.limitErr != nil {
		return exchange.Order{}, m.limitErr
	}
	return m.stubOrder(symbol, side, "LIMIT", quantity), nil
}

func (m *mockOrderClient) CreateStopLimitOrder(ctx context.Context, symbol, side string, quantity, stopPrice, limitPrice float64) (exchange.Order, error) {
	m.calls = append(m.calls, "CreateStopLimitOrder")
	m.quantities = append(m.quantities, quantity)
	if m.stopErr != nil {
		return exchange.Order{}, m.stopErr
	}
	return m.stubOrder(symbol, side, "STOP_LIMIT", quantity), nil
}

func (m *mockOrderClient) FetchOrder(ctx context.Context, symbol, orderID string) (exchange.Order, error) {
	m.calls = append(m.calls, "FetchOrder")
	return exchange.Order{ID: orderID, Symbol: symbol, Status: "NEW"}, nil
}

func (m *mockOrderClient) CancelOrder(ctx context.Context, symbol, orderID string) (exchange.Order, error) {
	m.calls = append(m.calls, "CancelOrder")
	return exchange.Order{ID: orderID, Symbol: symbol, Status: "CANCELED"}, nil
}

func (m *mockOrderClient) count(name string) int {
	n := 0
	for _, call := range m.calls {
		if call == name {
			n++
		}
	}
	return n
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
