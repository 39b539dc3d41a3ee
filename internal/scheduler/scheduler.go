package scheduler

import (
	"context"
	"time"

	"perpscan/internal/logger"
)

// IntervalScheduler runs a task on a fixed wall-clock interval. The first
// run fires immediately when RunImmediately is set. Start blocks until the
// context is cancelled, so callers usually run it in its own goroutine.
type IntervalScheduler struct {
	Interval       time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

func (s *IntervalScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("IntervalScheduler: task is nil, exit")
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}

	logger.Infof("IntervalScheduler: started interval=%s run_immediately=%v",
		s.Interval, s.RunImmediately)

	if s.RunImmediately {
		task()
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		case <-ticker.C:
			task()
		}
	}
}
