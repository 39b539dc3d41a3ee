// Package app assembles the process: gateway, scan pipeline, executor,
// persistence, notifications and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"time"

	"perpscan/internal/analysis/indicator"
	"perpscan/internal/bot"
	"perpscan/internal/config"
	"perpscan/internal/executor"
	"perpscan/internal/gateway/binance"
	"perpscan/internal/gateway/exchange"
	"perpscan/internal/gateway/notifier"
	"perpscan/internal/logger"
	"perpscan/internal/market"
	"perpscan/internal/position"
	"perpscan/internal/scanner"
	"perpscan/internal/scheduler"
	"perpscan/internal/store"
	"perpscan/internal/store/recentlog"
	"perpscan/internal/strategy"
	apihttp "perpscan/internal/transport/http"
)

// App is the assembled process. Build wires everything; Run drives it
// until the context is cancelled.
type App struct {
	cfg        *config.Config
	cfgPath    string
	gateway    exchange.Gateway
	notify     *notifier.Manager
	scanner    *scanner.Scanner
	exec       *executor.Executor
	tracker    *position.Tracker
	controller *bot.Controller
	store      *store.Store
	logs       *recentlog.Ring
	server     *apihttp.Server
}

func New(cfg *config.Config, cfgPath string) (*App, error) {
	gw, err := buildGateway(cfg.Exchange)
	if err != nil {
		return nil, err
	}

	mgr := buildNotifier(cfg.Notify)

	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}
	var logs *recentlog.Ring
	if cfg.Store.BotLogPath != "" {
		logs, err = recentlog.Open(cfg.Store.BotLogPath, cfg.Store.BotLogKeep)
		if err != nil {
			return nil, fmt.Errorf("open log buffer: %w", err)
		}
		logger.AddSink(logs)
	}

	universe := market.NewUniverse(gw, time.Duration(cfg.Scan.SymbolCacheTTLMin)*time.Minute, cfg.Scan.MaxSymbols)
	fetcher := market.NewFetcher(gw,
		time.Duration(cfg.Scan.BatchDelayMs)*time.Millisecond,
		time.Duration(cfg.Scan.BatchJitterMs)*time.Millisecond)

	risk := strategy.NewRiskFilter(riskConfig(cfg.Filter))
	sc := scanner.New(universe, fetcher, indicatorConfig(cfg.Indicator), risk, mgr, scanner.Config{
		Interval:    cfg.Scan.Interval,
		CandleLimit: cfg.Scan.CandleLimit,
		MinHistory:  cfg.Scan.CandleLimit,
		Concurrency: int64(cfg.Scan.Concurrency),
	})

	tracker := position.NewTracker(gw, mgr)
	var orderLog executor.OrderLog
	if st != nil {
		orderLog = st
	}
	exec := executor.New(gw, universe, tracker, mgr, orderLog, executorConfig(cfg.Order))

	interval, ok := scheduler.ParseIntervalDuration(cfg.Scan.Interval)
	if !ok {
		return nil, fmt.Errorf("invalid scan interval %q", cfg.Scan.Interval)
	}
	var saver bot.SignalSaver
	if st != nil {
		saver = st
	}
	controller := bot.NewController(sc, exec, tracker, gw, saver, interval)

	server := apihttp.NewServer(cfg.App.HTTPAddr, &apihttp.Router{
		Controller: controller,
		Scanner:    sc,
		Tracker:    tracker,
		Executor:   exec,
		Gateway:    gw,
		Store:      st,
		Logs:       logs,
		Notify:     mgr,
	})

	return &App{
		cfg:        cfg,
		cfgPath:    cfgPath,
		gateway:    gw,
		notify:     mgr,
		scanner:    sc,
		exec:       exec,
		tracker:    tracker,
		controller: controller,
		store:      st,
		logs:       logs,
		server:     server,
	}, nil
}

// Run starts the bot and serves the HTTP API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.controller.Start(ctx); err != nil {
		return fmt.Errorf("start bot: %w", err)
	}
	defer func() {
		if err := a.controller.Stop(); err != nil {
			logger.Debugf("bot stop on shutdown: %v", err)
		}
	}()

	if a.cfgPath != "" {
		go func() {
			if err := config.Watch(ctx, a.cfgPath, a.applyReload); err != nil {
				logger.Warnf("config watcher disabled: %v", err)
			}
		}()
	}

	err := a.server.Start(ctx)
	a.close()
	return err
}

// applyReload pushes the hot-reloadable tunables into the running
// pipeline. Endpoint, credentials and store paths deliberately require a
// restart.
func (a *App) applyReload(next *config.Config) {
	a.scanner.Retune(indicatorConfig(next.Indicator), strategy.NewRiskFilter(riskConfig(next.Filter)))
	a.exec.Retune(executorConfig(next.Order))
	logger.SetLevel(next.App.LogLevel)
	logger.Infof("config reloaded: indicator, filter and order tunables applied")
}

func (a *App) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("close store: %v", err)
		}
	}
	if a.logs != nil {
		if err := a.logs.Close(); err != nil {
			logger.Warnf("close log buffer: %v", err)
		}
	}
}

func buildGateway(cfg config.ExchangeConfig) (exchange.Gateway, error) {
	key, secret := cfg.ActiveKeys()
	if key == "" || secret == "" {
		return nil, fmt.Errorf("exchange API credentials are not configured")
	}
	bcfg := binance.Config{
		APIKey:      key,
		APISecret:   secret,
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}
	if cfg.Testnet {
		logger.Infof("exchange gateway: Binance futures testnet")
		return binance.NewTestnet(bcfg), nil
	}
	logger.Infof("exchange gateway: Binance futures mainnet")
	return binance.NewMainnet(bcfg), nil
}

func buildNotifier(cfg config.NotifyConfig) *notifier.Manager {
	var channels []notifier.Channel
	if cfg.Telegram.Enabled {
		channels = append(channels, notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Discord.Enabled {
		channels = append(channels, notifier.NewDiscord(cfg.Discord.WebhookURL))
	}
	mgr := notifier.NewManager(channels...)
	if mgr.Connected() {
		logger.Infof("notifications enabled: %v", mgr.ChannelNames())
	} else {
		logger.Infof("notifications disabled: no channel configured")
	}
	return mgr
}

func indicatorConfig(c config.IndicatorConfig) indicator.Config {
	return indicator.Config{
		RSIPeriod:       c.RSIPeriod,
		BBPeriod:        c.BBPeriod,
		BBStdDev:        c.BBStdDev,
		MACDFast:        c.MACDFast,
		MACDSlow:        c.MACDSlow,
		MACDSignal:      c.MACDSignal,
		EMAShort:        c.EMAShort,
		EMALong:         c.EMALong,
		ADXPeriod:       c.ADXPeriod,
		ATRPeriod:       c.ATRPeriod,
		VolumeAvgPeriod: c.VolumeAvgPeriod,
	}
}

func riskConfig(c config.FilterConfig) strategy.RiskConfig {
	return strategy.RiskConfig{
		MinTradeVolume: c.MinTradeVolume,
		MinConfidence:  c.MinConfidence,
		MinTPROI:       c.MinTPROI,
	}
}

func executorConfig(c config.OrderConfig) executor.Config {
	return executor.Config{
		Leverage:        c.Leverage,
		CapitalPerOrder: c.CapitalPerOrder,
		DailyLimit:      c.DailyLimit,
		PerScanLimit:    c.PerScanLimit,
		TakeProfitROI:   c.TakeProfitROI,
		StopLossROI:     c.StopLossROI,
	}
}
