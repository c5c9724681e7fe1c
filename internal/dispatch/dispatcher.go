package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"futures-bot/internal/exchange"
	"futures-bot/internal/validate"
)

// orderClient 抽象调度器依赖的交易所操作，方便测试替换。
type orderClient interface {
	CreateMarketOrder(ctx context.Context, symbol, side string, quantity float64) (exchange.Order, error)
	CreateLimitOrder(ctx context.Context, symbol, side string, quantity, price float64) (exchange.Order, error)
	CreateStopLimitOrder(ctx context.Context, symbol, side string, quantity, stopPrice, limitPrice float64) (exchange.Order, error)
	FetchOrder(ctx context.Context, symbol, orderID string) (exchange.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (exchange.Order, error)
}

var _ orderClient = (*exchange.Client)(nil)

// sleepFunc 为分时下单的节奏等待，注入以便测试替换为空操作。
type sleepFunc func(ctx context.Context, d time.Duration) error

// Dispatcher 将抽象订单请求映射为一次或多次交易所调用。
// 整个调度路径单线程同步执行，多腿操作遇到子操作失败即停止，
// 不回滚已成交部分，也不做任何自动重试。
type Dispatcher struct {
	client orderClient
	logger *zap.Logger
	sleep  sleepFunc
}

// NewDispatcher 创建订单调度器。
func NewDispatcher(client orderClient, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client: client,
		logger: logger,
		sleep:  waitFor,
	}
}

// waitFor 阻塞等待指定时长，上下文取消时立即返回。
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PlaceMarket 提交市价单。
func (d *Dispatcher) PlaceMarket(ctx context.Context, symbol string, side Side, quantity float64) (*exchange.Order, error) {
	symbol, sideStr, err := d.validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}

	d.logger.Info("提交市价单",
		zap.String("symbol", symbol),
		zap.String("side", sideStr),
		zap.Float64("quantity", quantity),
	)

	order, err := d.client.CreateMarketOrder(ctx, symbol, sideStr, quantity)
	if err != nil {
		d.logger.Error("市价单提交失败", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}

	d.logger.Info("市价单已提交",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
	)
	return &order, nil
}

// PlaceLimit 提交限价单，有效期 GTC。
func (d *Dispatcher) PlaceLimit(ctx context.Context, symbol string, side Side, quantity, price float64) (*exchange.Order, error) {
	symbol, sideStr, err := d.validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}
	if err := validate.Price(price); err != nil {
		return nil, err
	}

	d.logger.Info("提交限价单",
		zap.String("symbol", symbol),
		zap.String("side", sideStr),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
	)

	order, err := d.client.CreateLimitOrder(ctx, symbol, sideStr, quantity, price)
	if err != nil {
		d.logger.Error("限价单提交失败", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}

	d.logger.Info("限价单已提交",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
	)
	return &order, nil
}

// PlaceStopLimit 提交止损限价单。
func (d *Dispatcher) PlaceStopLimit(ctx context.Context, symbol string, side Side, quantity, stopPrice, limitPrice float64) (*exchange.Order, error) {
	symbol, sideStr, err := d.validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}
	if err := validate.Price(stopPrice); err != nil {
		return nil, err
	}
	if err := validate.Price(limitPrice); err != nil {
		return nil, err
	}

	d.logger.Info("提交止损限价单",
		zap.String("symbol", symbol),
		zap.String("side", sideStr),
		zap.Float64("quantity", quantity),
		zap.Float64("stop_price", stopPrice),
		zap.Float64("limit_price", limitPrice),
	)

	order, err := d.client.CreateStopLimitOrder(ctx, symbol, sideStr, quantity, stopPrice, limitPrice)
	if err != nil {
		d.logger.Error("止损限价单提交失败", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}

	d.logger.Info("止损限价单已提交",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
	)
	return &order, nil
}

// PlaceSyntheticOco 以两笔独立委托模拟 OCO：先限价腿后止损限价腿，
// 数量对半拆分。限价腿失败直接终止；止损腿失败时返回仅含限价腿的
// 部分结果，限价腿保持生效，需人工跟进未挂出的一腿。
func (d *Dispatcher) PlaceSyntheticOco(ctx context.Context, symbol string, side Side, quantity, price, stopPrice, stopLimitPrice float64) (*OcoResult, error) {
	symbol, _, err := d.validateCommon(symbol, side, quantity)
	if err != nil {
		return nil, err
	}
	for _, p := range []float64{price, stopPrice, stopLimitPrice} {
		if err := validate.Price(p); err != nil {
			return nil, err
		}
	}

	legQty := quantity / 2

	d.logger.Info("开始合成OCO下单",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("leg_quantity", legQty),
		zap.Float64("price", price),
		zap.Float64("stop_price", stopPrice),
		zap.Float64("stop_limit_price", stopLimitPrice),
	)

	limitLeg, err := d.PlaceLimit(ctx, symbol, side, legQty, price)
	if err != nil {
		d.logger.Error("合成OCO限价腿失败，终止止损腿", zap.Error(err))
		return nil, err
	}

	stopLeg, err := d.PlaceStopLimit(ctx, symbol, side, legQty, stopPrice, stopLimitPrice)
	if err != nil {
		d.logger.Warn("合成OCO止损腿失败，限价腿已生效需人工处理",
			zap.String("limit_order_id", limitLeg.ID),
			zap.Error(err),
		)
		return &OcoResult{Limit: *limitLeg, Partial: true}, nil
	}

	d.logger.Info("合成OCO两腿均已提交",
		zap.String("limit_order_id", limitLeg.ID),
		zap.String("stop_order_id", stopLeg.ID),
	)
	return &OcoResult{Limit: *limitLeg, Stop: stopLeg}, nil
}

// PlaceTimeSliced 将大额订单拆分为等量市价子单并按固定间隔依次提交。
// 单线程阻塞执行，不校正调用耗时带来的漂移；首个失败子单立即终止
// 剩余子单，已成交部分不回滚，部分结果随错误一并返回。
func (d *Dispatcher) PlaceTimeSliced(ctx context.Context, symbol string, side Side, totalQty float64, intervals int, duration time.Duration) (*TimeSlicedResult, error) {
	symbol, _, err := d.validateCommon(symbol, side, totalQty)
	if err != nil {
		return nil, err
	}
	if intervals <= 0 {
		return nil, fmt.Errorf("%w: 分时单拆分次数必须大于0", validate.ErrInvalidInput)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: 分时单总时长必须大于0", validate.ErrInvalidInput)
	}

	result := &TimeSlicedResult{
		Symbol:      symbol,
		Side:        side,
		Requested:   intervals,
		PerOrderQty: totalQty / float64(intervals),
		Wait:        duration / time.Duration(intervals),
	}

	d.logger.Info("开始分时下单",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("total_quantity", totalQty),
		zap.Int("intervals", intervals),
		zap.Duration("duration", duration),
		zap.Float64("per_order_quantity", result.PerOrderQty),
		zap.Duration("wait", result.Wait),
	)

	for i := 0; i < intervals; i++ {
		slice := Slice{Index: i + 1, State: SliceSubmitting}

		order, err := d.PlaceMarket(ctx, symbol, side, result.PerOrderQty)
		if err != nil {
			slice.State = SliceFailed
			result.Slices = append(result.Slices, slice)
			d.logger.Error("分时子单失败，终止剩余子单",
				zap.Int("slice", slice.Index),
				zap.Int("completed", result.Completed),
				zap.Int("requested", result.Requested),
				zap.Error(err),
			)
			return result, err
		}

		slice.State = SliceSubmitted
		slice.Order = *order
		result.Slices = append(result.Slices, slice)
		result.Completed++

		if i < intervals-1 {
			if err := d.sleep(ctx, result.Wait); err != nil {
				d.logger.Warn("分时单等待期间被中断，停止后续子单",
					zap.Int("completed", result.Completed),
					zap.Int("requested", result.Requested),
					zap.Error(err),
				)
				return result, err
			}
		}
	}

	result.Complete = true
	d.logger.Info("分时下单完成",
		zap.Int("completed", result.Completed),
		zap.Int("requested", result.Requested),
	)
	return result, nil
}

// OrderStatus 查询委托状态。
func (d *Dispatcher) OrderStatus(ctx context.Context, symbol, orderID string) (*exchange.Order, error) {
	symbol, err := validate.Symbol(symbol)
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, fmt.Errorf("%w: 订单ID不能为空", validate.ErrInvalidInput)
	}

	order, err := d.client.FetchOrder(ctx, symbol, orderID)
	if err != nil {
		d.logger.Error("查询委托失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return &order, nil
}

// Cancel 撤销委托。
func (d *Dispatcher) Cancel(ctx context.Context, symbol, orderID string) (*exchange.Order, error) {
	symbol, err := validate.Symbol(symbol)
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, fmt.Errorf("%w: 订单ID不能为空", validate.ErrInvalidInput)
	}

	order, err := d.client.CancelOrder(ctx, symbol, orderID)
	if err != nil {
		d.logger.Error("撤单失败", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	d.logger.Info("撤单成功", zap.String("order_id", orderID))
	return &order, nil
}

// validateCommon 统一完成符号、方向与数量的本地校验，失败不触达网络。
func (d *Dispatcher) validateCommon(symbol string, side Side, quantity float64) (string, string, error) {
	normalized, err := validate.Symbol(symbol)
	if err != nil {
		return "", "", err
	}
	sideStr, err := validate.Side(string(side))
	if err != nil {
		return "", "", err
	}
	if err := validate.Quantity(quantity); err != nil {
		return "", "", err
	}
	return normalized, sideStr, nil
}
