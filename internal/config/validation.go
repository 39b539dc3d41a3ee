package config

import (
	"fmt"

	"perpscan/internal/scheduler"
)

func validate(c *Config) error {
	if _, ok := scheduler.ParseIntervalDuration(c.Scan.Interval); !ok {
		return fmt.Errorf("scan.interval %q is not a valid kline interval", c.Scan.Interval)
	}
	if c.Scan.Concurrency > 200 {
		return fmt.Errorf("scan.concurrency %d is unreasonably high (max 200)", c.Scan.Concurrency)
	}
	if c.Indicator.MACDFast >= c.Indicator.MACDSlow {
		return fmt.Errorf("indicator.macd_fast (%d) must be below macd_slow (%d)",
			c.Indicator.MACDFast, c.Indicator.MACDSlow)
	}
	if c.Indicator.EMAShort >= c.Indicator.EMALong {
		return fmt.Errorf("indicator.ema_short (%d) must be below ema_long (%d)",
			c.Indicator.EMAShort, c.Indicator.EMALong)
	}
	if c.Order.Leverage > 125 {
		return fmt.Errorf("order.leverage %d exceeds the exchange maximum", c.Order.Leverage)
	}
	if c.Order.StopLossROI < 0 {
		return fmt.Errorf("order.stop_loss_roi must be a positive magnitude, got %v", c.Order.StopLossROI)
	}
	return nil
}
