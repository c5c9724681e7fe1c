package dispatch

import (
	"time"

	"futures-bot/internal/exchange"
)

// Side 表示下单方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Kind 表示支持的委托种类。
type Kind string

const (
	KindMarket       Kind = "MARKET"
	KindLimit        Kind = "LIMIT"
	KindStopLimit    Kind = "STOP_LIMIT"
	KindSyntheticOco Kind = "SYNTHETIC_OCO"
	KindTimeSliced   Kind = "TIME_SLICED"
)

// SliceState 为分时子单状态机：PENDING → SUBMITTING → {SUBMITTED, FAILED}。
// FAILED 为终态并终止剩余子单。
type SliceState string

const (
	SlicePending    SliceState = "PENDING"
	SliceSubmitting SliceState = "SUBMITTING"
	SliceSubmitted  SliceState = "SUBMITTED"
	SliceFailed     SliceState = "FAILED"
)

// Slice 记录单个分时子单的执行结果。
type Slice struct {
	Index int
	State SliceState
	Order exchange.Order
}

// TimeSlicedResult 汇总一次分时下单：已完成子单列表与完成数/请求数。
// 失败时 Complete 为 false，Slices 中保留失败前已成交的子单。
type TimeSlicedResult struct {
	Symbol      string
	Side        Side
	Requested   int
	Completed   int
	PerOrderQty float64
	Wait        time.Duration
	Slices      []Slice
	Complete    bool
}

// Submitted 返回已被交易所确认的子单。
func (r *TimeSlicedResult) Submitted() []exchange.Order {
	orders := make([]exchange.Order, 0, r.Completed)
	for _, slice := range r.Slices {
		if slice.State == SliceSubmitted {
			orders = append(orders, slice.Order)
		}
	}
	return orders
}

// OcoResult 为合成 OCO 的两腿委托。交易所不支持联动撤单，
// 两腿相互独立；Partial 为 true 时止损腿未能挂出，需人工处理限价腿。
type OcoResult struct {
	Limit   exchange.Order
	Stop    *exchange.Order
	Partial bool
}
