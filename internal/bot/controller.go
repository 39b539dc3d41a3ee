// Package bot owns the runtime state machine: scanning on/off crossed with
// auto-order on/off, plus the account stream subscription lifecycle.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"perpscan/internal/executor"
	"perpscan/internal/gateway/exchange"
	"perpscan/internal/logger"
	"perpscan/internal/position"
	"perpscan/internal/scanner"
	"perpscan/internal/scheduler"
	"perpscan/internal/strategy"
)

// SignalSaver persists each scan's batch. Nil disables persistence.
type SignalSaver interface {
	SaveSignals(signals []strategy.Signal) error
}

// Status is the operator-facing runtime snapshot.
type Status struct {
	Running      bool      `json:"running"`
	OrdersActive bool      `json:"orders_active"`
	ScanInterval string    `json:"scan_interval"`
	ScanCount    int       `json:"scan_count"`
	LastScan     time.Time `json:"last_scan,omitempty"`
	Signals      int       `json:"signals"`
	Positions    int       `json:"positions"`
	DailyOrders  int       `json:"daily_orders"`
	StartedAt    time.Time `json:"started_at,omitempty"`
}

// Controller drives the scan loop and the order subsystem. Scanning and
// auto-ordering are independent switches: orders can only be active while
// scanning runs, and stopping the bot stops orders with it.
type Controller struct {
	scanner  *scanner.Scanner
	exec     *executor.Executor
	tracker  *position.Tracker
	gw       exchange.Gateway
	saver    SignalSaver
	interval time.Duration

	mu           sync.Mutex
	running      bool
	ordersActive bool
	startedAt    time.Time
	cancel       context.CancelFunc
	stopStream   func()
	done         chan struct{}
}

func NewController(sc *scanner.Scanner, exec *executor.Executor, tracker *position.Tracker, gw exchange.Gateway, saver SignalSaver, interval time.Duration) *Controller {
	return &Controller{
		scanner:  sc,
		exec:     exec,
		tracker:  tracker,
		gw:       gw,
		saver:    saver,
		interval: interval,
	}
}

// Start brings up the scan loop and the account stream. Starting an
// already running bot is an error, not a restart. The loop's lifetime is
// owned by the controller, not the caller: parent scopes the startup calls
// only, and the loop runs until Stop.
func (c *Controller) Start(parent context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("bot is already running")
	}
	if parent == nil {
		parent = context.Background()
	}

	// loopCtx gates whether another cycle starts; scanCtx is never
	// cancelled, so an in-flight scan or order sequence completes its
	// gateway calls even while Stop is waiting on it.
	scanCtx := context.WithoutCancel(parent)
	loopCtx, cancel := context.WithCancel(scanCtx)

	if err := c.tracker.Refresh(parent); err != nil {
		logger.Warnf("initial position refresh failed: %v", err)
	}
	stop, err := c.gw.SubscribeAccount(loopCtx, c.tracker.ApplyStreamUpdate)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe account stream: %w", err)
	}

	c.cancel = cancel
	c.stopStream = stop
	c.running = true
	c.startedAt = time.Now()
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		sched := scheduler.NewIntervalScheduler(loopCtx, c.interval)
		sched.RunImmediately = true
		sched.Start(func() { c.runScan(scanCtx) })
	}()

	logger.Infof("bot started, scanning every %s", c.interval)
	return nil
}

// Stop tears down the order subsystem and the scan loop. An in-flight scan
// or order sequence finishes on its own before Stop returns; the stream is
// closed only after the loop has drained so late fills still reach the
// tracker.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return fmt.Errorf("bot is not running")
	}
	cancel, stop, done := c.cancel, c.stopStream, c.done
	c.running = false
	c.ordersActive = false
	c.cancel = nil
	c.stopStream = nil
	c.mu.Unlock()

	c.scanner.SetAutoOrder(nil)
	cancel()
	<-done
	if stop != nil {
		stop()
	}
	logger.Infof("bot stopped")
	return nil
}

// StartOrders activates auto-ordering on subsequent scans. Requires a
// running bot.
func (c *Controller) StartOrders() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return fmt.Errorf("bot is not running")
	}
	if c.ordersActive {
		return fmt.Errorf("auto orders are already active")
	}
	c.ordersActive = true
	c.scanner.SetAutoOrder(func(ctx context.Context, signals []strategy.Signal) {
		c.exec.ExecuteBatch(ctx, signals)
	})
	logger.Infof("auto orders activated")
	return nil
}

// StopOrders deactivates auto-ordering without touching the scan loop.
// Open positions and their protective brackets are left alone.
func (c *Controller) StopOrders() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ordersActive {
		return fmt.Errorf("auto orders are not active")
	}
	c.ordersActive = false
	c.scanner.SetAutoOrder(nil)
	logger.Infof("auto orders deactivated")
	return nil
}

// Status reports the current runtime snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	running, orders, startedAt := c.running, c.ordersActive, c.startedAt
	c.mu.Unlock()

	count, last, _ := c.scanner.Stats()
	st := Status{
		Running:      running,
		OrdersActive: orders,
		ScanInterval: c.interval.String(),
		ScanCount:    count,
		LastScan:     last,
		Signals:      c.scanner.Batch().Len(),
		Positions:    len(c.tracker.List()),
		DailyOrders:  c.exec.DailyUsed(),
	}
	if running {
		st.StartedAt = startedAt
	}
	return st
}

func (c *Controller) runScan(ctx context.Context) {
	if _, err := c.scanner.Scan(ctx); err != nil {
		logger.Warnf("scan cycle: %v", err)
		return
	}
	if c.saver != nil {
		if err := c.saver.SaveSignals(c.scanner.Batch().List()); err != nil {
			logger.Errorf("persist signal batch failed: %v", err)
		}
	}
}
