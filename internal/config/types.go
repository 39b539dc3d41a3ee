package config

// Config is the main configuration carrier for perpscan.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Scan      ScanConfig      `yaml:"scan"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Filter    FilterConfig    `yaml:"filter"`
	Order     OrderConfig     `yaml:"order"`
	Notify    NotifyConfig    `yaml:"notify"`
	Store     StoreConfig     `yaml:"store"`
}

type AppConfig struct {
	Env           string `yaml:"env"`
	LogLevel      string `yaml:"log_level"`
	LogPath       string `yaml:"log_path"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	HTTPAddr      string `yaml:"http_addr"`
}

// ExchangeConfig selects the Binance futures endpoint once at construction;
// the variant is never switched per call.
type ExchangeConfig struct {
	Testnet            bool   `yaml:"testnet"`
	APIKey             string `yaml:"api_key"`
	APISecret          string `yaml:"api_secret"`
	TestAPIKey         string `yaml:"test_api_key"`
	TestAPISecret      string `yaml:"test_api_secret"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
}

// ActiveKeys returns the credential pair for the selected endpoint.
func (e ExchangeConfig) ActiveKeys() (key, secret string) {
	if e.Testnet {
		return e.TestAPIKey, e.TestAPISecret
	}
	return e.APIKey, e.APISecret
}

type ScanConfig struct {
	Interval          string `yaml:"interval"`
	CandleLimit       int    `yaml:"candle_limit"`
	MaxSymbols        int    `yaml:"max_symbols"`
	Concurrency       int    `yaml:"concurrency"`
	SymbolCacheTTLMin int    `yaml:"symbol_cache_ttl_min"`
	BatchDelayMs      int    `yaml:"batch_delay_ms"`
	BatchJitterMs     int    `yaml:"batch_jitter_ms"`
}

type IndicatorConfig struct {
	RSIPeriod       int     `yaml:"rsi_period"`
	BBPeriod        int     `yaml:"bb_period"`
	BBStdDev        float64 `yaml:"bb_std_dev"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	EMAShort        int     `yaml:"ema_short"`
	EMALong         int     `yaml:"ema_long"`
	ADXPeriod       int     `yaml:"adx_period"`
	ATRPeriod       int     `yaml:"atr_period"`
	VolumeAvgPeriod int     `yaml:"volume_avg_period"`
}

type FilterConfig struct {
	MinTradeVolume float64 `yaml:"min_trade_volume"`
	MinConfidence  float64 `yaml:"min_confidence"`
	MinTPROI       float64 `yaml:"min_tp_roi"`
}

// OrderConfig drives the execution pipeline. TakeProfitROI/StopLossROI are
// operator targets in ROI percent and override per-signal ATR targets at
// execution time.
type OrderConfig struct {
	Leverage        int     `yaml:"leverage"`
	CapitalPerOrder float64 `yaml:"capital_per_order"`
	DailyLimit      int     `yaml:"daily_limit"`
	PerScanLimit    int     `yaml:"per_scan_limit"`
	TakeProfitROI   float64 `yaml:"take_profit_roi"`
	StopLossROI     float64 `yaml:"stop_loss_roi"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

type StoreConfig struct {
	Path       string `yaml:"path"`
	BotLogPath string `yaml:"botlog_path"`
	BotLogKeep int    `yaml:"botlog_keep"`
}
