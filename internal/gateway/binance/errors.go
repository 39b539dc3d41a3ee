package binance

import (
	"context"
	"errors"
	"net"

	"github.com/adshao/go-binance/v2/common"

	"perpscan/internal/gateway/exchange"
)

// Binance error codes the execution policy cares about.
const (
	codeDisconnected    = -1001
	codeTimeout         = -1007
	codeTimestampSkew   = -1021
	codeNoNeedMarginChg = -4046
)

// ClassifyError maps a gateway error onto the execution error policy:
// "already set" margin responses count as success, clock-skew and timeout
// errors are soft, everything else (invalid key, insufficient margin,
// validation failures) is fatal for the triggering operation.
func (c *Client) ClassifyError(err error) exchange.ErrorClass {
	if err == nil {
		return exchange.ErrClassAlreadySet
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case codeNoNeedMarginChg:
			return exchange.ErrClassAlreadySet
		case codeTimestampSkew, codeTimeout, codeDisconnected:
			return exchange.ErrClassSoft
		default:
			return exchange.ErrClassFatal
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return exchange.ErrClassSoft
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return exchange.ErrClassSoft
	}
	return exchange.ErrClassFatal
}
