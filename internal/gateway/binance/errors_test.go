package binance

import (
	"context"
	"fmt"
	"testing"

	"github.com/adshao/go-binance/v2/common"
	"github.com/stretchr/testify/assert"

	"perpscan/internal/gateway/exchange"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	c := NewTestnet(Config{APIKey: "k", APISecret: "s"})

	cases := []struct {
		name string
		err  error
		want exchange.ErrorClass
	}{
		{"nil error", nil, exchange.ErrClassAlreadySet},
		{"no need to change margin", &common.APIError{Code: -4046, Message: "No need to change margin type."}, exchange.ErrClassAlreadySet},
		{"timestamp skew", &common.APIError{Code: -1021, Message: "Timestamp outside recvWindow"}, exchange.ErrClassSoft},
		{"server timeout", &common.APIError{Code: -1007, Message: "Timeout waiting for response"}, exchange.ErrClassSoft},
		{"disconnected", &common.APIError{Code: -1001, Message: "Internal error"}, exchange.ErrClassSoft},
		{"invalid key", &common.APIError{Code: -2015, Message: "Invalid API-key"}, exchange.ErrClassFatal},
		{"insufficient margin", &common.APIError{Code: -2019, Message: "Margin is insufficient"}, exchange.ErrClassFatal},
		{"wrapped api error", fmt.Errorf("set leverage: %w", &common.APIError{Code: -4046}), exchange.ErrClassAlreadySet},
		{"context deadline", context.DeadlineExceeded, exchange.ErrClassSoft},
		{"net timeout", timeoutErr{}, exchange.ErrClassSoft},
		{"plain error", fmt.Errorf("boom"), exchange.ErrClassFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.ClassifyError(tc.err))
		})
	}
}

func TestEndpointSelection(t *testing.T) {
	main := NewMainnet(Config{APIKey: "k", APISecret: "s"})
	assert.False(t, main.Testnet())

	test := NewTestnet(Config{APIKey: "k", APISecret: "s"})
	assert.True(t, test.Testnet())
}
