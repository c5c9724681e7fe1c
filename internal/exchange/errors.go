package exchange

import (
	"context"
	"errors"
	"fmt"

	ccxt "github.com/ccxt/ccxt/go/v4"
)

// ErrUnexpected 表示传输或解析层面的意外失败，与交易所明确拒单区分开。
var ErrUnexpected = errors.New("unexpected exchange failure")

// APIError 表示交易所拒绝了请求。
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange api error [%s]: %s", e.Code, e.Message)
}

// classifyError 将底层错误归一到错误分类：
// 交易所拒单归为 *APIError，上下文取消原样返回，其余包装为 ErrUnexpected。
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		switch ccxtErr.Type {
		case ccxt.NetworkErrorErrType,
			ccxt.RequestTimeoutErrType,
			ccxt.ExchangeNotAvailableErrType,
			ccxt.RateLimitExceededErrType,
			ccxt.DDoSProtectionErrType,
			ccxt.BadResponseErrType,
			ccxt.NullResponseErrType,
			ccxt.OnMaintenanceErrType:
			return fmt.Errorf("%w: %s", ErrUnexpected, ccxtErr.Message)
		default:
			return &APIError{
				Code:    fmt.Sprintf("%v", ccxtErr.Type),
				Message: ccxtErr.Message,
			}
		}
	}

	return fmt.Errorf("%w: %v", ErrUnexpected, err)
}

// IsAPIError 判断错误是否为交易所拒单，并返回具体信息。
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
