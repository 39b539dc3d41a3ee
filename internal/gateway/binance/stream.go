package binance

import (
	"context"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"perpscan/internal/gateway/exchange"
	"perpscan/internal/logger"
)

const listenKeyKeepalive = 25 * time.Minute

// SubscribeAccount opens the user-data stream and forwards every position
// entry of ACCOUNT_UPDATE events with the abbreviated wire fields expanded.
// The handler must not block: it runs on the websocket read loop.
func (c *Client) SubscribeAccount(ctx context.Context, onUpdate func(exchange.PositionUpdate)) (func(), error) {
	listenKey, err := c.client.NewStartUserStreamService().Do(ctx)
	if err != nil {
		return nil, err
	}

	wsHandler := func(event *futures.WsUserDataEvent) {
		if event == nil || event.Event != futures.UserDataEventTypeAccountUpdate {
			return
		}
		for _, p := range event.AccountUpdate.Positions {
			onUpdate(exchange.PositionUpdate{
				Symbol:        p.Symbol,
				PositionAmt:   parseFloat(p.Amount),
				EntryPrice:    parseFloat(p.EntryPrice),
				MarkPrice:     parseFloat(p.MarkPrice),
				UnrealizedPnl: parseFloat(p.UnrealizedPnL),
			})
		}
	}
	errHandler := func(err error) {
		logger.Warnf("user data stream error: %v", err)
	}

	doneC, stopC, err := futures.WsUserDataServe(listenKey, wsHandler, errHandler)
	if err != nil {
		return nil, err
	}

	keepCtx, keepCancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(listenKeyKeepalive)
		defer ticker.Stop()
		for {
			select {
			case <-keepCtx.Done():
				return
			case <-doneC:
				return
			case <-ticker.C:
				if err := c.client.NewKeepaliveUserStreamService().ListenKey(listenKey).Do(keepCtx); err != nil {
					logger.Warnf("listen key keepalive failed: %v", err)
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			keepCancel()
			close(stopC)
		})
	}
	return stop, nil
}
