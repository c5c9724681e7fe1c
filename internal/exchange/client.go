package exchange

import (
	"context"
	"strings"
	"sync"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"futures-bot/internal/config"
)

// Client 封装 Binance USDⓈ-M 合约接口。远程调用不做自动重试，
// 失败直接按错误分类上抛，由调度层决定是否终止后续操作。
type Client struct {
	cfg      config.ExchangeConfig
	logger   *zap.Logger
	exchange *ccxt.Binanceusdm

	marketsMu     sync.Mutex
	marketsLoaded bool
}

// NewClient 构造 Binance USDⓈ-M 客户端。
func NewClient(cfg config.ExchangeConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
		"options": map[string]interface{}{
			"adjustForTimeDifference": true,
			"defaultType":             "future",
		},
	}

	if cfg.APIKey != "" {
		userConfig["apiKey"] = cfg.APIKey
	}
	if cfg.APISecret != "" {
		userConfig["secret"] = cfg.APISecret
	}

	ex := ccxt.NewBinanceusdm(userConfig)
	if cfg.UseTestnet {
		ex.SetSandboxMode(true)
	}

	return &Client{
		cfg:      cfg,
		logger:   logger,
		exchange: ex,
	}, nil
}

// CreateMarketOrder 提交市价单。
func (c *Client) CreateMarketOrder(ctx context.Context, symbol, side string, quantity float64) (Order, error) {
	if err := c.prepare(ctx); err != nil {
		return Order{}, err
	}

	raw, err := c.exchange.CreateMarketOrder(symbol, strings.ToLower(side), quantity)
	if err != nil {
		return Order{}, classifyError(err)
	}

	return convertOrder(raw), nil
}

// CreateLimitOrder 提交限价单，有效期为 GTC（撤销前有效）。
func (c *Client) CreateLimitOrder(ctx context.Context, symbol, side string, quantity, price float64) (Order, error) {
	if err := c.prepare(ctx); err != nil {
		return Order{}, err
	}

	params := map[string]interface{}{
		"timeInForce": "GTC",
	}
	raw, err := c.exchange.CreateLimitOrder(symbol, strings.ToLower(side), quantity, price,
		ccxt.WithCreateLimitOrderParams(params),
	)
	if err != nil {
		return Order{}, classifyError(err)
	}

	return convertOrder(raw), nil
}

// CreateStopLimitOrder 提交止损限价单：到达触发价后以限价挂出，有效期 GTC。
func (c *Client) CreateStopLimitOrder(ctx context.Context, symbol, side string, quantity, stopPrice, limitPrice float64) (Order, error) {
	if err := c.prepare(ctx); err != nil {
		return Order{}, err
	}

	params := map[string]interface{}{
		"stopPrice":   stopPrice,
		"timeInForce": "GTC",
	}
	raw, err := c.exchange.CreateOrder(symbol, "limit", strings.ToLower(side), quantity,
		ccxt.WithCreateOrderPrice(limitPrice),
		ccxt.WithCreateOrderParams(params),
	)
	if err != nil {
		return Order{}, classifyError(err)
	}

	return convertOrder(raw), nil
}

// FetchOrder 查询指定委托。
func (c *Client) FetchOrder(ctx context.Context, symbol, orderID string) (Order, error) {
	if err := c.prepare(ctx); err != nil {
		return Order{}, err
	}

	raw, err := c.exchange.FetchOrder(orderID, ccxt.WithFetchOrderSymbol(symbol))
	if err != nil {
		return Order{}, classifyError(err)
	}

	return convertOrder(raw), nil
}

// CancelOrder 撤销指定委托。
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) (Order, error) {
	if err := c.prepare(ctx); err != nil {
		return Order{}, err
	}

	raw, err := c.exchange.CancelOrder(orderID, ccxt.WithCancelOrderSymbol(symbol))
	if err != nil {
		return Order{}, classifyError(err)
	}

	return convertOrder(raw), nil
}

// FetchTicker 获取最新成交价。
func (c *Client) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	if err := c.prepare(ctx); err != nil {
		return Ticker{}, err
	}

	raw, err := c.exchange.FetchTicker(symbol)
	if err != nil {
		return Ticker{}, classifyError(err)
	}

	ticker := Ticker{
		Symbol: derefString(raw.Symbol),
		Last:   derefFloat(raw.Last),
	}
	if ticker.Symbol == "" {
		ticker.Symbol = symbol
	}
	if raw.Timestamp != nil {
		ticker.Timestamp = time.UnixMilli(int64(*raw.Timestamp)).UTC()
	} else {
		ticker.Timestamp = time.Now().UTC()
	}

	return ticker, nil
}

// prepare 在每次远程调用前检查上下文并完成一次性市场元数据加载。
func (c *Client) prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.ensureMarketsLoaded(ctx)
}

func (c *Client) ensureMarketsLoaded(ctx context.Context) error {
	if c.marketsLoaded {
		return nil
	}

	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()

	if c.marketsLoaded {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.exchange.LoadMarkets(); err != nil {
		return classifyError(err)
	}

	c.marketsLoaded = true
	c.logger.Info("已完成市场元数据加载",
		zap.String("exchange", c.cfg.Name),
		zap.Bool("testnet", c.cfg.UseTestnet),
	)
	return nil
}

func convertOrder(raw ccxt.Order) Order {
	order := Order{
		ID:            derefString(raw.Id),
		ClientOrderID: derefString(raw.ClientOrderId),
		Symbol:        derefString(raw.Symbol),
		Side:          strings.ToUpper(derefString(raw.Side)),
		Type:          strings.ToUpper(derefString(raw.Type)),
		Quantity:      derefFloat(raw.Amount),
		Filled:        derefFloat(raw.Filled),
		Price:         derefFloat(raw.Price),
		Average:       derefFloat(raw.Average),
		Status:        derefString(raw.Status),
	}

	if raw.LastUpdateTimestamp != nil {
		order.UpdatedAt = time.UnixMilli(int64(*raw.LastUpdateTimestamp)).UTC()
	} else if raw.Timestamp != nil {
		order.UpdatedAt = time.UnixMilli(int64(*raw.Timestamp)).UTC()
	}

	return order
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
