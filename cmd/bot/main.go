package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"futures-bot/internal/cli"
	"futures-bot/internal/config"
	"futures-bot/internal/dispatch"
	"futures-bot/internal/exchange"
	"futures-bot/internal/log"
	"futures-bot/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	journal, err := store.NewJournal(cfg.Database)
	if err != nil {
		logger.Error("初始化订单流水库失败", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := journal.Close(); closeErr != nil {
			logger.Warn("关闭订单流水库失败", zap.Error(closeErr))
		}
	}()

	client, err := exchange.NewClient(cfg.Exchange, logger)
	if err != nil {
		logger.Error("初始化交易所客户端失败", zap.Error(err))
		os.Exit(1)
	}

	dispatcher := dispatch.NewDispatcher(client, logger)
	market := exchange.NewService(client, logger)
	terminal := cli.New(cfg, dispatcher, market, journal, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := terminal.Run(ctx); err != nil {
		logger.Error("终端运行异常", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("已安全退出")
}
