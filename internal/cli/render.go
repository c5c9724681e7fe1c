package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"futures-bot/internal/dispatch"
	"futures-bot/internal/exchange"
	"futures-bot/internal/store"
)

var (
	colorSuccess = color.New(color.FgGreen)
	colorError   = color.New(color.FgRed)
	colorWarn    = color.New(color.FgYellow)
	colorInfo    = color.New(color.FgBlue)
	colorHeader  = color.New(color.FgCyan)
)

func (c *CLI) successf(format string, args ...interface{}) {
	colorSuccess.Fprintf(c.out, "✓ "+format+"\n", args...)
}

func (c *CLI) errorf(format string, args ...interface{}) {
	colorError.Fprintf(c.out, "✗ "+format+"\n", args...)
}

func (c *CLI) warnf(format string, args ...interface{}) {
	colorWarn.Fprintf(c.out, "⚠ "+format+"\n", args...)
}

func (c *CLI) infof(format string, args ...interface{}) {
	colorInfo.Fprintf(c.out, "ℹ "+format+"\n", args...)
}

func (c *CLI) header(title string) {
	line := "============================================================"
	colorHeader.Fprintf(c.out, "\n%s\n%s\n%s\n", line, title, line)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPrice(v float64) string {
	if v == 0 {
		return "市价"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// renderOrder 以表格输出单笔委托详情。
func (c *CLI) renderOrder(order exchange.Order) {
	table := tablewriter.NewWriter(c.out)
	table.Append([]string{"订单ID", order.ID})
	table.Append([]string{"交易对", order.Symbol})
	table.Append([]string{"方向", order.Side})
	table.Append([]string{"类型", order.Type})
	table.Append([]string{"数量", formatQty(order.Quantity)})
	table.Append([]string{"价格", formatPrice(order.Price)})
	table.Append([]string{"状态", order.Status})
	table.Append([]string{"更新时间", formatTime(order.UpdatedAt)})
	table.Render()
}

// renderBalance 输出账户余额，零余额资产已在上游过滤。
func (c *CLI) renderBalance(balance exchange.AccountBalance) {
	if len(balance.Assets) == 0 {
		c.warnf("没有非零余额资产")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"资产", "总额", "可用", "占用"})
	for _, asset := range balance.Assets {
		table.Append([]string{
			asset.Asset,
			fmt.Sprintf("%.8f", asset.Total),
			fmt.Sprintf("%.8f", asset.Free),
			fmt.Sprintf("%.8f", asset.Used),
		})
	}
	table.Render()

	fmt.Fprintf(c.out, "\n钱包总额: %.8f USDT\n可用余额: %.8f USDT\n", balance.TotalUSD, balance.FreeUSD)
}

// renderTimeSliced 输出分时下单结果：逐笔子单及完成进度。
func (c *CLI) renderTimeSliced(result *dispatch.TimeSlicedResult) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"序号", "状态", "订单ID", "数量", "成交价"})
	for _, slice := range result.Slices {
		table.Append([]string{
			strconv.Itoa(slice.Index),
			string(slice.State),
			slice.Order.ID,
			formatQty(result.PerOrderQty),
			formatPrice(slice.Order.Average),
		})
	}
	table.Render()

	fmt.Fprintf(c.out, "\n完成进度: %d/%d\n", result.Completed, result.Requested)
}

// renderHistory 输出订单流水。
func (c *CLI) renderHistory(entries []store.JournalEntry) {
	if len(entries) == 0 {
		c.infof("暂无订单流水")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"订单ID", "交易对", "方向", "类型", "数量", "价格", "状态", "时间"})
	for _, entry := range entries {
		table.Append([]string{
			entry.OrderID,
			entry.Symbol,
			entry.Side,
			entry.Type,
			formatQty(entry.Quantity),
			formatPrice(entry.Price),
			entry.Status,
			formatTime(entry.RecordedAt),
		})
	}
	table.Render()
}
