// Package validate 提供下单前的本地输入校验，校验失败的请求不会触达网络。
package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput 表示本地输入校验失败。
var ErrInvalidInput = errors.New("invalid input")

const minSymbolLen = 6

// Symbol 归一化并校验交易对符号，返回大写形式。
func Symbol(s string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(s))
	if symbol == "" {
		return "", fmt.Errorf("%w: 交易对不能为空", ErrInvalidInput)
	}
	if len(symbol) < minSymbolLen {
		return "", fmt.Errorf("%w: 交易对过短，示例 BTCUSDT", ErrInvalidInput)
	}
	return symbol, nil
}

// Quantity 校验下单数量为正的有限数。
func Quantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return fmt.Errorf("%w: 数量必须为正数", ErrInvalidInput)
	}
	return nil
}

// Price 校验价格为正的有限数。
func Price(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return fmt.Errorf("%w: 价格必须为正数", ErrInvalidInput)
	}
	return nil
}

// Side 归一化买卖方向，仅接受 BUY/SELL。
func Side(s string) (string, error) {
	side := strings.ToUpper(strings.TrimSpace(s))
	switch side {
	case "BUY", "SELL":
		return side, nil
	default:
		return "", fmt.Errorf("%w: 方向必须为 BUY 或 SELL", ErrInvalidInput)
	}
}
