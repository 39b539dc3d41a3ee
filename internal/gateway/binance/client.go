// Package binance implements exchange.Gateway on top of the go-binance
// USDT-M futures SDK. Mainnet and testnet are separate constructors; the
// endpoint choice is made once and never revisited per call.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"perpscan/internal/gateway/exchange"
	"perpscan/internal/market"
)

const (
	mainnetBaseURL = "https://fapi.binance.com"
	testnetBaseURL = "https://testnet.binancefuture.com"

	maxKlineBatch = 1500
)

type Config struct {
	APIKey      string
	APISecret   string
	HTTPTimeout time.Duration
}

// Client is the concrete exchange.Gateway backed by Binance futures REST
// plus the user-data websocket stream.
type Client struct {
	client  *futures.Client
	testnet bool
}

var _ exchange.Gateway = (*Client)(nil)

// NewMainnet builds a production gateway.
func NewMainnet(cfg Config) *Client {
	return newClient(cfg, mainnetBaseURL, false)
}

// NewTestnet builds a gateway against the Binance futures testnet. The SDK's
// websocket endpoint switch is global, which is acceptable because exactly
// one gateway variant exists per process.
func NewTestnet(cfg Config) *Client {
	futures.UseTestnet = true
	return newClient(cfg, testnetBaseURL, true)
}

func newClient(cfg Config, baseURL string, testnet bool) *Client {
	client := futures.NewClient(cfg.APIKey, cfg.APISecret)
	client.BaseURL = baseURL
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{client: client, testnet: testnet}
}

// Testnet reports which endpoint this gateway was constructed against.
func (c *Client) Testnet() bool { return c.testnet }

func (c *Client) ExchangeInfo(ctx context.Context) ([]market.SymbolSpec, error) {
	info, err := c.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange info: %w", err)
	}
	out := make([]market.SymbolSpec, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		spec := market.SymbolSpec{
			Symbol:       s.Symbol,
			QuoteAsset:   s.QuoteAsset,
			Status:       s.Status,
			ContractType: string(s.ContractType),
		}
		if f := s.LotSizeFilter(); f != nil {
			spec.LotStep = parseFloat(f.StepSize)
			spec.MinQty = parseFloat(f.MinQuantity)
		}
		if f := s.PriceFilter(); f != nil {
			spec.TickSize = parseFloat(f.TickSize)
		}
		out = append(out, spec)
	}
	return out, nil
}

func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int, endTime int64) (market.Candles, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineBatch {
		limit = maxKlineBatch
	}
	svc := c.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	if endTime > 0 {
		svc = svc.EndTime(endTime)
	}
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make(market.Candles, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

func (c *Client) Balances(ctx context.Context) ([]exchange.Balance, error) {
	res, err := c.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("account balance: %w", err)
	}
	out := make([]exchange.Balance, 0, len(res))
	for _, b := range res {
		if b == nil {
			continue
		}
		out = append(out, exchange.Balance{
			Asset:     b.Asset,
			Balance:   parseFloat(b.Balance),
			Available: parseFloat(b.AvailableBalance),
			CrossPnl:  parseFloat(b.CrossUnPnl),
		})
	}
	return out, nil
}

func (c *Client) Positions(ctx context.Context) ([]exchange.Position, error) {
	res, err := c.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("position risk: %w", err)
	}
	out := make([]exchange.Position, 0, len(res))
	for _, p := range res {
		if p == nil {
			continue
		}
		amt := parseFloat(p.PositionAmt)
		if amt == 0 {
			continue
		}
		side := "LONG"
		size := amt
		if amt < 0 {
			side = "SHORT"
			size = -amt
		}
		out = append(out, exchange.Position{
			Symbol:        p.Symbol,
			Side:          side,
			EntryPrice:    parseFloat(p.EntryPrice),
			MarkPrice:     parseFloat(p.MarkPrice),
			Size:          size,
			UnrealizedPnl: parseFloat(p.UnRealizedProfit),
			Leverage:      parseFloat(p.Leverage),
			Status:        "active",
			UpdatedAt:     time.Now().UTC(),
		})
	}
	return out, nil
}

func (c *Client) SetMarginType(ctx context.Context, symbol string, isolated bool) error {
	mt := futures.MarginTypeIsolated
	if !isolated {
		mt = futures.MarginTypeCrossed
	}
	return c.client.NewChangeMarginTypeService().Symbol(symbol).MarginType(mt).Do(ctx)
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := c.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	return err
}

func (c *Client) PlaceOrder(ctx context.Context, intent exchange.OrderIntent) (exchange.OrderResult, error) {
	svc := c.client.NewCreateOrderService().
		Symbol(intent.Symbol).
		Side(futures.SideType(intent.Side)).
		Type(futures.OrderType(intent.Type))
	if intent.Quantity > 0 {
		svc = svc.Quantity(formatAmount(intent.Quantity))
	}
	if intent.StopPrice > 0 {
		svc = svc.StopPrice(formatAmount(intent.StopPrice))
	}
	if intent.ClosePosition {
		svc = svc.ClosePosition(true)
	}
	if intent.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return exchange.OrderResult{}, err
	}
	return exchange.OrderResult{
		OrderID:     res.OrderID,
		Symbol:      res.Symbol,
		Status:      string(res.Status),
		AvgPrice:    parseFloat(res.AvgPrice),
		ExecutedQty: parseFloat(res.ExecutedQuantity),
	}, nil
}

// formatAmount renders a quantity or price without float artifacts; values
// arrive already rounded to the symbol's lot/tick step.
func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
