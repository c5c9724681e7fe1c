package store

import (
	"context"
	"testing"

	"futures-bot/internal/config"
	"futures-bot/internal/exchange"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := NewJournal(config.DatabaseConfig{
		InMemory:     true,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("NewJournal returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	orders := []exchange.Order{
		{ID: "1", Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: 0.001, Status: "FILLED"},
		{ID: "2", Symbol: "BTCUSDT", Side: "SELL", Type: "LIMIT", Quantity: 0.002, Price: 52000, Status: "NEW"},
		{ID: "3", Symbol: "ETHUSDT", Side: "BUY", Type: "STOP_LIMIT", Quantity: 0.1, Price: 3000, Status: "NEW"},
	}
	for _, order := range orders {
		if err := j.Record(ctx, order); err != nil {
			t.Fatalf("Record(%s) returned error: %v", order.ID, err)
		}
	}

	entries, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].OrderID != "3" || entries[1].OrderID != "2" {
		t.Errorf("expected newest-first ordering, got %s then %s", entries[0].OrderID, entries[1].OrderID)
	}
	if entries[1].Price != 52000 {
		t.Errorf("expected price 52000, got %f", entries[1].Price)
	}
	if entries[0].RecordedAt.IsZero() {
		t.Errorf("expected recorded_at to be set")
	}
}

func TestJournal_RecentDefaultsLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.Record(ctx, exchange.Order{ID: "1", Symbol: "BTCUSDT", Side: "BUY", Type: "MARKET", Quantity: 0.001, Status: "FILLED"}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	entries, err := j.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}
