// Package scanner runs the per-symbol analysis pipeline over the whole
// symbol universe under a bounded-concurrency limiter and owns the
// resulting signal batch.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"perpscan/internal/analysis/indicator"
	"perpscan/internal/gateway/notifier"
	"perpscan/internal/logger"
	"perpscan/internal/market"
	"perpscan/internal/strategy"
)

// Config carries the scan-cycle tunables.
type Config struct {
	Interval    string
	CandleLimit int
	MinHistory  int // candles required before indicator math runs
	Concurrency int64
}

// Summary aggregates one completed scan cycle.
type Summary struct {
	Symbols  int           `json:"symbols"`
	Signals  int           `json:"signals"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// AutoOrderFunc receives the freshly persisted batch after each scan when
// the order subsystem is active.
type AutoOrderFunc func(ctx context.Context, signals []strategy.Signal)

// Scanner orchestrates fetch → indicators → regime → signal → risk across
// the universe. One scan at a time: a cycle that fires while the previous
// one is still in flight is skipped.
type Scanner struct {
	universe *market.Universe
	fetcher  *market.Fetcher
	indCfg   indicator.Config
	risk     *strategy.RiskFilter
	notify   notifier.Channel
	batch    *Batch
	cfg      Config

	cfgMu sync.RWMutex // guards indCfg and risk for hot reloads

	autoMu    sync.RWMutex
	autoOrder AutoOrderFunc

	scanMu       sync.Mutex
	statsMu      sync.Mutex
	scanCount    int
	lastScanTime time.Time
	lastSummary  Summary
}

func New(universe *market.Universe, fetcher *market.Fetcher, indCfg indicator.Config, risk *strategy.RiskFilter, notify notifier.Channel, cfg Config) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 20
	}
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 200
	}
	if cfg.MinHistory <= 0 {
		cfg.MinHistory = cfg.CandleLimit
	}
	return &Scanner{
		universe: universe,
		fetcher:  fetcher,
		indCfg:   indCfg,
		risk:     risk,
		notify:   notify,
		batch:    NewBatch(),
		cfg:      cfg,
	}
}

// Batch exposes the scan-owned signal batch.
func (s *Scanner) Batch() *Batch { return s.batch }

// SetAutoOrder installs (or clears, with nil) the post-scan order callback.
func (s *Scanner) SetAutoOrder(fn AutoOrderFunc) {
	s.autoMu.Lock()
	s.autoOrder = fn
	s.autoMu.Unlock()
}

// Retune swaps the analysis thresholds, used by config hot reload.
func (s *Scanner) Retune(indCfg indicator.Config, risk *strategy.RiskFilter) {
	s.cfgMu.Lock()
	s.indCfg = indCfg
	if risk != nil {
		s.risk = risk
	}
	s.cfgMu.Unlock()
}

// Stats returns scan counters for the operator surface.
func (s *Scanner) Stats() (count int, last time.Time, summary Summary) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.scanCount, s.lastScanTime, s.lastSummary
}

// Scan runs one full cycle and returns its summary. The previous signal
// batch is discarded and replaced wholesale; per-symbol failures are
// isolated, accumulated and reported without aborting the cycle.
func (s *Scanner) Scan(ctx context.Context) (Summary, error) {
	if !s.scanMu.TryLock() {
		logger.Warnf("scan skipped: previous scan still in flight")
		return Summary{}, fmt.Errorf("scan already in flight")
	}
	defer s.scanMu.Unlock()

	started := time.Now()
	logger.Infof("scan started")

	symbols := s.universe.Symbols(ctx)
	results := make([]*strategy.Signal, len(symbols))
	errs := make([]error, len(symbols))

	sem := semaphore.NewWeighted(s.cfg.Concurrency)
	group, groupCtx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		if err := sem.Acquire(groupCtx, 1); err != nil {
			errs[i] = err
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			sig, err := s.analyzeSymbol(groupCtx, symbol)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", symbol, err)
				return nil // isolated: never abort sibling symbols
			}
			results[i] = sig
			return nil
		})
	}
	_ = group.Wait()

	var signals []strategy.Signal
	for _, sig := range results {
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	errCount := 0
	for _, err := range errs {
		if err != nil {
			errCount++
			logger.Errorf("scan symbol failed: %v", err)
		}
	}

	s.batch.Replace(signals)

	for _, sig := range signals {
		logger.Infof("signal: %s | %s | %s | strength=%.0f | TP=%.2f%% | SL=%.2f%%",
			sig.Symbol, sig.Direction, sig.Regime, sig.Strength, sig.TPROI, sig.SLROI)
		if err := s.notify.SendSignal(sig); err != nil {
			logger.Warnf("signal notification failed: %v", err)
		}
	}

	summary := Summary{
		Symbols:  len(symbols),
		Signals:  len(signals),
		Errors:   errCount,
		Duration: time.Since(started),
		At:       started.UTC(),
	}
	s.statsMu.Lock()
	s.scanCount++
	s.lastScanTime = started
	s.lastSummary = summary
	s.statsMu.Unlock()

	logger.Infof("scan finished: %d pairs, %d signals, %d errors in %s",
		summary.Symbols, summary.Signals, summary.Errors, summary.Duration.Truncate(time.Millisecond))
	if err := s.notify.SendScanSummary(notifier.ScanSummary{
		Symbols:  summary.Symbols,
		Signals:  summary.Signals,
		Errors:   summary.Errors,
		Duration: summary.Duration,
		At:       summary.At,
	}); err != nil {
		logger.Warnf("scan summary notification failed: %v", err)
	}

	s.autoMu.RLock()
	auto := s.autoOrder
	s.autoMu.RUnlock()
	if auto != nil && len(signals) > 0 {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("auto-order callback panicked: %v", r)
				}
			}()
			auto(ctx, s.batch.List())
		}()
	}

	return summary, nil
}

// analyzeSymbol runs the full per-symbol pipeline. A nil signal with nil
// error means the symbol was legitimately skipped (short history, MIXED
// regime, or risk rejection).
func (s *Scanner) analyzeSymbol(ctx context.Context, symbol string) (*strategy.Signal, error) {
	candles, err := s.fetcher.Fetch(ctx, symbol, s.cfg.Interval, s.cfg.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) < s.cfg.MinHistory {
		logger.Debugf("[%s] skipped: %d candles below required %d", symbol, len(candles), s.cfg.MinHistory)
		return nil, nil
	}

	s.cfgMu.RLock()
	indCfg := s.indCfg
	risk := s.risk
	s.cfgMu.RUnlock()

	ind, err := indicator.Compute(candles, indCfg)
	if err != nil {
		logger.Debugf("[%s] skipped: %v", symbol, err)
		return nil, nil
	}

	price := candles.LastClose()
	regime := strategy.ClassifyRegime(ind.LastADX(), ind.LastEMAShort(), ind.LastEMALong(), ind.ATR, price)
	if regime == strategy.RegimeMixed {
		return nil, nil
	}

	cand := strategy.Generate(regime, candles, ind, indCfg.VolumeAvgPeriod)
	if cand == nil {
		return nil, nil
	}
	return risk.Accept(symbol, regime, cand, candles, ind), nil
}
