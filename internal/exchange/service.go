package exchange

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service 聚合下单前展示所需的行情与账户数据。
// 仅服务于信息展示路径，订单调度本身保持单线程。
type Service struct {
	client *Client
	logger *zap.Logger
}

// NewService 创建行情账户聚合服务。
func NewService(client *Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		logger: logger,
	}
}

// Ticker 透传最新成交价查询。
func (s *Service) Ticker(ctx context.Context, symbol string) (Ticker, error) {
	return s.client.FetchTicker(ctx, symbol)
}

// Balance 透传账户余额查询。
func (s *Service) Balance(ctx context.Context) (AccountBalance, error) {
	return s.client.FetchBalance(ctx)
}

// Overview 并发拉取最新成交价与账户余额，用于下单确认前的概览。
func (s *Service) Overview(ctx context.Context, symbol string) (Overview, error) {
	var (
		ticker  Ticker
		balance AccountBalance
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		data, err := s.client.FetchTicker(groupCtx, symbol)
		if err != nil {
			return err
		}
		ticker = data
		return nil
	})

	group.Go(func() error {
		data, err := s.client.FetchBalance(groupCtx)
		if err != nil {
			return err
		}
		balance = data
		return nil
	})

	if err := group.Wait(); err != nil {
		return Overview{}, err
	}

	overview := Overview{
		Ticker:      ticker,
		Balance:     balance,
		RetrievedAt: time.Now().UTC(),
	}

	s.logger.Debug("行情账户概览获取完成",
		zap.String("symbol", symbol),
		zap.Float64("last", ticker.Last),
		zap.Float64("free_usd", balance.FreeUSD),
	)

	return overview, nil
}
