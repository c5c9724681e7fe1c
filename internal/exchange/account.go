package exchange

import (
	"context"
	"sort"
	"strconv"
	"time"
)

// FetchBalance 获取合约账户余额，过滤掉全零资产。
func (c *Client) FetchBalance(ctx context.Context) (AccountBalance, error) {
	if err := c.prepare(ctx); err != nil {
		return AccountBalance{}, err
	}

	raw, err := c.exchange.FetchBalance()
	if err != nil {
		return AccountBalance{}, classifyError(err)
	}

	balance := AccountBalance{Timestamp: time.Now().UTC()}

	if raw.Total != nil {
		for asset, total := range raw.Total {
			if total == nil || *total == 0 {
				continue
			}
			entry := AssetBalance{Asset: asset, Total: *total}
			if raw.Free != nil {
				if free, ok := raw.Free[asset]; ok && free != nil {
					entry.Free = *free
				}
			}
			if raw.Used != nil {
				if used, ok := raw.Used[asset]; ok && used != nil {
					entry.Used = *used
				}
			}
			balance.Assets = append(balance.Assets, entry)
		}
	}

	sort.Slice(balance.Assets, func(i, j int) bool {
		return balance.Assets[i].Asset < balance.Assets[j].Asset
	})

	for _, code := range []string{"USDT", "USDC", "USD"} {
		for _, entry := range balance.Assets {
			if entry.Asset == code {
				balance.TotalUSD = entry.Total
				balance.FreeUSD = entry.Free
			}
		}
		if balance.TotalUSD != 0 {
			break
		}
	}

	if raw.Info != nil {
		if balance.TotalUSD == 0 {
			balance.TotalUSD = parseNumeric(raw.Info["totalWalletBalance"])
		}
		if balance.FreeUSD == 0 {
			balance.FreeUSD = parseNumeric(raw.Info["availableBalance"])
		}
	}

	return balance, nil
}

func parseNumeric(v interface{}) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int64:
		return float64(value)
	case int:
		return float64(value)
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
