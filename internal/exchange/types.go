package exchange

import "time"

// Order 为交易所回报的委托信息，字段原样透出，状态仅用于展示。
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Side          string
	Type          string
	Quantity      float64
	Filled        float64
	Price         float64
	Average       float64
	Status        string
	UpdatedAt     time.Time
}

// Ticker 为最新成交价快照。
type Ticker struct {
	Symbol    string
	Last      float64
	Timestamp time.Time
}

// AssetBalance 表示单一资产余额。
type AssetBalance struct {
	Asset string
	Total float64
	Free  float64
	Used  float64
}

// AccountBalance 描述账户权益及各资产余额。
type AccountBalance struct {
	Assets    []AssetBalance
	TotalUSD  float64
	FreeUSD   float64
	Timestamp time.Time
}

// Overview 聚合下单前展示所需的行情与账户信息。
type Overview struct {
	Ticker      Ticker
	Balance     AccountBalance
	RetrievedAt time.Time
}
