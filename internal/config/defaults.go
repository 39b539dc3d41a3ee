package config

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":8580"
	}
	if c.App.LogMaxSizeMB <= 0 {
		c.App.LogMaxSizeMB = 50
	}
	if c.App.LogMaxBackups <= 0 {
		c.App.LogMaxBackups = 5
	}

	if c.Exchange.HTTPTimeoutSeconds <= 0 {
		c.Exchange.HTTPTimeoutSeconds = 15
	}

	if c.Scan.Interval == "" {
		c.Scan.Interval = "1h"
	}
	if c.Scan.CandleLimit <= 0 {
		c.Scan.CandleLimit = 200
	}
	if c.Scan.MaxSymbols <= 0 {
		c.Scan.MaxSymbols = 500
	}
	if c.Scan.Concurrency <= 0 {
		c.Scan.Concurrency = 20
	}
	if c.Scan.SymbolCacheTTLMin <= 0 {
		c.Scan.SymbolCacheTTLMin = 60
	}
	if c.Scan.BatchDelayMs <= 0 {
		c.Scan.BatchDelayMs = 500
	}
	if c.Scan.BatchJitterMs <= 0 {
		c.Scan.BatchJitterMs = 200
	}

	if c.Indicator.RSIPeriod <= 0 {
		c.Indicator.RSIPeriod = 14
	}
	if c.Indicator.BBPeriod <= 0 {
		c.Indicator.BBPeriod = 20
	}
	if c.Indicator.BBStdDev <= 0 {
		c.Indicator.BBStdDev = 2
	}
	if c.Indicator.MACDFast <= 0 {
		c.Indicator.MACDFast = 12
	}
	if c.Indicator.MACDSlow <= 0 {
		c.Indicator.MACDSlow = 26
	}
	if c.Indicator.MACDSignal <= 0 {
		c.Indicator.MACDSignal = 9
	}
	if c.Indicator.EMAShort <= 0 {
		c.Indicator.EMAShort = 20
	}
	if c.Indicator.EMALong <= 0 {
		c.Indicator.EMALong = 50
	}
	if c.Indicator.ADXPeriod <= 0 {
		c.Indicator.ADXPeriod = 14
	}
	if c.Indicator.ATRPeriod <= 0 {
		c.Indicator.ATRPeriod = 14
	}
	if c.Indicator.VolumeAvgPeriod <= 0 {
		c.Indicator.VolumeAvgPeriod = 20
	}

	if c.Filter.MinTradeVolume <= 0 {
		c.Filter.MinTradeVolume = 1_000_000
	}
	if c.Filter.MinConfidence <= 0 {
		c.Filter.MinConfidence = 60
	}
	if c.Filter.MinTPROI <= 0 {
		c.Filter.MinTPROI = 5
	}

	if c.Order.Leverage <= 0 {
		c.Order.Leverage = 20
	}
	if c.Order.CapitalPerOrder <= 0 {
		c.Order.CapitalPerOrder = 10
	}
	if c.Order.DailyLimit <= 0 {
		c.Order.DailyLimit = 10
	}
	if c.Order.PerScanLimit <= 0 {
		c.Order.PerScanLimit = 3
	}
	if c.Order.TakeProfitROI <= 0 {
		c.Order.TakeProfitROI = 4
	}
	if c.Order.StopLossROI <= 0 {
		c.Order.StopLossROI = 2
	}

	if c.Store.Path == "" {
		c.Store.Path = "data/perpscan.db"
	}
	if c.Store.BotLogPath == "" {
		c.Store.BotLogPath = "data/botlog.db"
	}
	if c.Store.BotLogKeep <= 0 {
		c.Store.BotLogKeep = 500
	}
}
