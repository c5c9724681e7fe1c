// Package cli 实现交互式命令行：读取命令、收集下单参数、
// 确认后交给调度器执行，并把远程结果原样展示给用户。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"futures-bot/internal/config"
	"futures-bot/internal/dispatch"
	"futures-bot/internal/exchange"
	"futures-bot/internal/store"
	"futures-bot/internal/validate"
)

// CLI 聚合交互所需的依赖。每条命令独立执行，命令之间不共享可变状态。
type CLI struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	market     *exchange.Service
	journal    *store.Journal
	logger     *zap.Logger
	reader     *lineReader
	out        io.Writer
}

// New 创建命令行交互实例。
func New(cfg *config.Config, dispatcher *dispatch.Dispatcher, market *exchange.Service, journal *store.Journal, logger *zap.Logger) *CLI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLI{
		cfg:        cfg,
		dispatcher: dispatcher,
		market:     market,
		journal:    journal,
		logger:     logger,
		reader:     newLineReader(os.Stdin),
		out:        os.Stdout,
	}
}

// Run 运行命令循环直到用户退出或上下文取消。
func (c *CLI) Run(ctx context.Context) error {
	c.header("BINANCE 合约下单终端")
	c.infof("输入 help 查看可用命令，exit 退出")
	if c.cfg.Exchange.UseTestnet {
		c.successf("当前连接 Binance 测试网")
	} else {
		c.warnf("当前连接 Binance 实盘")
	}

	for {
		fmt.Fprintf(c.out, "\n------------------------------------------------------------\n")
		command, err := c.prompt(ctx, "请输入命令")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				c.infof("正在退出")
				return nil
			}
			return err
		}

		switch command {
		case "":
			continue
		case "exit", "quit":
			c.infof("正在退出")
			return nil
		case "help":
			c.showHelp()
		case "balance":
			c.handleBalance(ctx)
		case "price":
			c.handlePrice(ctx)
		case "market":
			c.handleMarket(ctx)
		case "limit":
			c.handleLimit(ctx)
		case "stop-limit":
			c.handleStopLimit(ctx)
		case "oco":
			c.handleOco(ctx)
		case "twap":
			c.handleTwap(ctx)
		case "status":
			c.handleStatus(ctx)
		case "cancel":
			c.handleCancel(ctx)
		case "history":
			c.handleHistory(ctx)
		case "config":
			c.showConfig()
		default:
			c.errorf("未知命令 %q，输入 help 查看可用命令", command)
		}

		if ctx.Err() != nil {
			c.infof("收到退出信号，正在停止")
			return nil
		}
	}
}

func (c *CLI) showHelp() {
	c.header("可用命令")
	fmt.Fprint(c.out, `
  账户:
    balance      查看账户余额
    price        查询最新成交价
    config       查看当前配置

  下单:
    market       市价单
    limit        限价单（GTC）
    stop-limit   止损限价单
    oco          合成OCO（限价腿 + 止损限价腿）
    twap         分时单（按时间均匀拆分的市价单）

  订单管理:
    status       查询委托状态
    cancel       撤销委托
    history      查看本地订单流水

  其他:
    help         显示本帮助
    exit / quit  退出
`)
}

func (c *CLI) showConfig() {
	c.header("当前配置")
	fmt.Fprintf(c.out, "测试网: %v\n", c.cfg.Exchange.UseTestnet)
	fmt.Fprintf(c.out, "API Key: %s\n", maskKey(c.cfg.Exchange.APIKey))
	fmt.Fprintf(c.out, "默认交易对: %s\n", c.cfg.Defaults.Symbol)
	fmt.Fprintf(c.out, "默认数量: %s\n", formatQty(c.cfg.Defaults.Quantity))
	fmt.Fprintf(c.out, "TWAP 默认拆分: %d 次 / %s\n", c.cfg.Twap.Intervals, c.cfg.Twap.Duration)
}

func maskKey(key string) string {
	if len(key) < 12 {
		return "未配置"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

func (c *CLI) handleBalance(ctx context.Context) {
	balance, err := c.market.Balance(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	c.header("账户余额")
	c.renderBalance(balance)
}

func (c *CLI) handlePrice(ctx context.Context) {
	symbol, err := c.promptSymbol(ctx)
	if err != nil {
		c.reportError(err)
		return
	}

	ticker, err := c.market.Ticker(ctx, symbol)
	if err != nil {
		c.reportError(err)
		return
	}
	c.infof("%s 最新成交价: %s", ticker.Symbol, formatQty(ticker.Last))
}

func (c *CLI) handleMarket(ctx context.Context) {
	c.header("市价单")

	symbol, side, quantity, err := c.promptCommon(ctx)
	if err != nil {
		c.reportError(err)
		return
	}

	last := c.showOverview(ctx, symbol)

	c.infof("订单摘要:")
	fmt.Fprintf(c.out, "  类型: MARKET\n  交易对: %s\n  方向: %s\n  数量: %s\n", symbol, side, formatQty(quantity))
	if last > 0 {
		fmt.Fprintf(c.out, "  预估价格: %s\n", formatQty(last))
	}

	ok, err := c.confirm(ctx, "确认下单？")
	if err != nil || !ok {
		c.abortOrder(err)
		return
	}

	order, err := c.dispatcher.PlaceMarket(ctx, symbol, side, quantity)
	if err != nil {
		c.reportError(err)
		return
	}

	c.successf("市价单已提交")
	c.renderOrder(*order)
	c.recordOrder(ctx, *order)
}

func (c *CLI) handleLimit(ctx context.Context) {
	c.header("限价单")

	symbol, side, quantity, err := c.promptCommon(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	price, err := c.promptFloat(ctx, "限价", 0)
	if err != nil {
		c.reportError(err)
		return
	}

	last := c.showOverview(ctx, symbol)

	c.infof("订单摘要:")
	fmt.Fprintf(c.out, "  类型: LIMIT (GTC)\n  交易对: %s\n  方向: %s\n  数量: %s\n  限价: %s\n",
		symbol, side, formatQty(quantity), formatQty(price))
	if last > 0 {
		fmt.Fprintf(c.out, "  当前价格: %s\n", formatQty(last))
	}

	ok, err := c.confirm(ctx, "确认下单？")
	if err != nil || !ok {
		c.abortOrder(err)
		return
	}

	order, err := c.dispatcher.PlaceLimit(ctx, symbol, side, quantity, price)
	if err != nil {
		c.reportError(err)
		return
	}

	c.successf("限价单已提交")
	c.renderOrder(*order)
	c.recordOrder(ctx, *order)
}

func (c *CLI) handleStopLimit(ctx context.Context) {
	c.header("止损限价单")

	symbol, side, quantity, err := c.promptCommon(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	stopPrice, err := c.promptFloat(ctx, "触发价", 0)
	if err != nil {
		c.reportError(err)
		return
	}
	limitPrice, err := c.promptFloat(ctx, "执行限价", 0)
	if err != nil {
		c.reportError(err)
		return
	}

	last := c.showOverview(ctx, symbol)

	c.infof("订单摘要:")
	fmt.Fprintf(c.out, "  类型: STOP_LIMIT (GTC)\n  交易对: %s\n  方向: %s\n  数量: %s\n  触发价: %s\n  执行限价: %s\n",
		symbol, side, formatQty(quantity), formatQty(stopPrice), formatQty(limitPrice))
	if last > 0 {
		fmt.Fprintf(c.out, "  当前价格: %s\n", formatQty(last))
	}

	ok, err := c.confirm(ctx, "确认下单？")
	if err != nil || !ok {
		c.abortOrder(err)
		return
	}

	order, err := c.dispatcher.PlaceStopLimit(ctx, symbol, side, quantity, stopPrice, limitPrice)
	if err != nil {
		c.reportError(err)
		return
	}

	c.successf("止损限价单已提交")
	c.renderOrder(*order)
	c.recordOrder(ctx, *order)
}

func (c *CLI) handleOco(ctx context.Context) {
	c.header("合成OCO（限价腿 + 止损限价腿）")
	c.warnf("交易所不支持联动撤单，两腿相互独立，成交后需人工撤销另一腿")

	symbol, side, quantity, err := c.promptCommon(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	price, err := c.promptFloat(ctx, "限价腿价格", 0)
	if err != nil {
		c.reportError(err)
		return
	}
	stopPrice, err := c.promptFloat(ctx, "止损触发价", 0)
	if err != nil {
		c.reportError(err)
		return
	}
	stopLimitPrice, err := c.promptFloat(ctx, "止损限价", 0)
	if err != nil {
		c.reportError(err)
		return
	}

	last := c.showOverview(ctx, symbol)

	c.infof("订单摘要:")
	fmt.Fprintf(c.out, "  类型: SYNTHETIC_OCO\n  交易对: %s\n  方向: %s\n  总数量: %s（每腿对半）\n  限价: %s\n  止损触发价: %s\n  止损限价: %s\n",
		symbol, side, formatQty(quantity), formatQty(price), formatQty(stopPrice), formatQty(stopLimitPrice))
	if last > 0 {
		fmt.Fprintf(c.out, "  当前价格: %s\n", formatQty(last))
	}

	ok, err := c.confirm(ctx, "确认下单？")
	if err != nil || !ok {
		c.abortOrder(err)
		return
	}

	result, err := c.dispatcher.PlaceSyntheticOco(ctx, symbol, side, quantity, price, stopPrice, stopLimitPrice)
	if err != nil {
		c.reportError(err)
		return
	}

	c.successf("限价腿已提交")
	c.renderOrder(result.Limit)
	c.recordOrder(ctx, result.Limit)

	if result.Partial {
		c.warnf("止损腿提交失败，仅限价腿生效，请人工跟进")
		return
	}

	c.successf("止损腿已提交")
	c.renderOrder(*result.Stop)
	c.recordOrder(ctx, *result.Stop)
}

func (c *CLI) handleTwap(ctx context.Context) {
	c.header("分时单（TWAP）")
	c.infof("订单将按时间均匀拆分为多笔市价单")

	symbol, side, quantity, err := c.promptCommon(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	intervals, err := c.promptInt(ctx, "拆分次数", c.cfg.Twap.Intervals)
	if err != nil {
		c.reportError(err)
		return
	}
	durationSec, err := c.promptInt(ctx, "总时长(秒)", int(c.cfg.Twap.Duration/time.Second))
	if err != nil {
		c.reportError(err)
		return
	}
	duration := time.Duration(durationSec) * time.Second

	last := c.showOverview(ctx, symbol)

	c.infof("订单摘要:")
	fmt.Fprintf(c.out, "  类型: TIME_SLICED\n  交易对: %s\n  方向: %s\n  总数量: %s\n  拆分次数: %d\n  总时长: %s\n",
		symbol, side, formatQty(quantity), intervals, duration)
	if intervals > 0 {
		fmt.Fprintf(c.out, "  每笔数量: %s\n  笔间间隔: %s\n",
			formatQty(quantity/float64(intervals)), duration/time.Duration(intervals))
	}
	if last > 0 {
		fmt.Fprintf(c.out, "  当前价格: %s\n", formatQty(last))
	}

	ok, err := c.confirm(ctx, "确认开始分时执行？")
	if err != nil || !ok {
		c.abortOrder(err)
		return
	}

	result, err := c.dispatcher.PlaceTimeSliced(ctx, symbol, side, quantity, intervals, duration)
	if result != nil {
		for _, order := range result.Submitted() {
			c.recordOrder(ctx, order)
		}
	}
	if err != nil {
		c.reportError(err)
		if result != nil && result.Completed > 0 {
			c.warnf("分时单中断，已成交 %d/%d 笔，已成交部分不会回滚", result.Completed, result.Requested)
			c.renderTimeSliced(result)
		}
		return
	}

	c.successf("分时单执行完成: %d/%d", result.Completed, result.Requested)
	c.renderTimeSliced(result)
}

func (c *CLI) handleStatus(ctx context.Context) {
	c.header("查询委托状态")

	symbol, err := c.promptSymbol(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	orderID, err := c.prompt(ctx, "订单ID")
	if err != nil {
		c.reportError(err)
		return
	}

	order, err := c.dispatcher.OrderStatus(ctx, symbol, orderID)
	if err != nil {
		c.reportError(err)
		return
	}
	c.renderOrder(*order)
}

func (c *CLI) handleCancel(ctx context.Context) {
	c.header("撤销委托")

	symbol, err := c.promptSymbol(ctx)
	if err != nil {
		c.reportError(err)
		return
	}
	orderID, err := c.prompt(ctx, "订单ID")
	if err != nil {
		c.reportError(err)
		return
	}

	ok, err := c.confirm(ctx, fmt.Sprintf("确认撤销订单 %s？", orderID))
	if err != nil || !ok {
		c.abortOrder(err)
		return
	}

	order, err := c.dispatcher.Cancel(ctx, symbol, orderID)
	if err != nil {
		c.reportError(err)
		return
	}
	c.successf("订单 %s 已撤销", orderID)
	c.renderOrder(*order)
}

func (c *CLI) handleHistory(ctx context.Context) {
	entries, err := c.journal.Recent(ctx, 20)
	if err != nil {
		c.reportError(err)
		return
	}
	c.header("订单流水（最近20条）")
	c.renderHistory(entries)
}

// promptCommon 收集交易对、方向与数量三项公共参数。
func (c *CLI) promptCommon(ctx context.Context) (string, dispatch.Side, float64, error) {
	symbol, err := c.promptSymbol(ctx)
	if err != nil {
		return "", "", 0, err
	}

	sideInput, err := c.prompt(ctx, "方向 (BUY/SELL)")
	if err != nil {
		return "", "", 0, err
	}
	side, err := validate.Side(sideInput)
	if err != nil {
		return "", "", 0, err
	}

	quantity, err := c.promptFloat(ctx, "数量", c.cfg.Defaults.Quantity)
	if err != nil {
		return "", "", 0, err
	}

	return symbol, dispatch.Side(side), quantity, nil
}

func (c *CLI) promptSymbol(ctx context.Context) (string, error) {
	input, err := c.promptDefault(ctx, "交易对", c.cfg.Defaults.Symbol)
	if err != nil {
		return "", err
	}
	return validate.Symbol(input)
}

// showOverview 并发拉取最新价与可用余额供确认参考，失败不阻断下单流程。
func (c *CLI) showOverview(ctx context.Context, symbol string) float64 {
	overview, err := c.market.Overview(ctx, symbol)
	if err != nil {
		c.warnf("获取行情账户概览失败: %v", err)
		return 0
	}
	c.infof("%s 最新成交价: %s，可用余额: %.2f USDT",
		overview.Ticker.Symbol, formatQty(overview.Ticker.Last), overview.Balance.FreeUSD)
	return overview.Ticker.Last
}

// recordOrder 写入订单流水，失败只记日志不影响交易结果。
func (c *CLI) recordOrder(ctx context.Context, order exchange.Order) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Record(ctx, order); err != nil {
		c.logger.Warn("订单流水写入失败", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (c *CLI) abortOrder(err error) {
	if err != nil {
		c.reportError(err)
		return
	}
	c.warnf("已取消下单")
}

// reportError 按错误分类输出：本地校验、交易所拒单或意外失败。
func (c *CLI) reportError(err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, validate.ErrInvalidInput):
		c.errorf("输入无效: %v", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.warnf("操作被中断")
	default:
		if apiErr, ok := exchange.IsAPIError(err); ok {
			c.errorf("交易所拒单 [%s]: %s", apiErr.Code, apiErr.Message)
		} else {
			c.errorf("请求失败: %v", err)
		}
	}

	c.logger.Error("命令执行失败", zap.Error(err))
}
