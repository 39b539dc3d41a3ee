package market

import (
	"context"
	"math/rand"
	"time"

	"perpscan/internal/logger"
)

const fetchBatchSize = 100

// KlineSource supplies one page of candle history, satisfied by the
// exchange gateway.
type KlineSource interface {
	Klines(ctx context.Context, symbol, interval string, limit int, endTime int64) (Candles, error)
}

// Fetcher retrieves candle history through backward pagination: each request
// asks for the batch preceding the oldest candle fetched so far, with a
// randomized delay between batches to stay under the exchange rate limits.
type Fetcher struct {
	gw         KlineSource
	baseDelay  time.Duration
	jitter     time.Duration
	sleepFn    func(context.Context, time.Duration)
	randSource *rand.Rand
}

func NewFetcher(gw KlineSource, baseDelay, jitter time.Duration) *Fetcher {
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if jitter <= 0 {
		jitter = 200 * time.Millisecond
	}
	return &Fetcher{
		gw:         gw,
		baseDelay:  baseDelay,
		jitter:     jitter,
		sleepFn:    sleepCtx,
		randSource: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch returns up to limit most-recent candles, oldest first. A short
// history yields a partial result without error; zero obtainable candles
// yield (nil, nil) and callers must check length before indicator math.
func (f *Fetcher) Fetch(ctx context.Context, symbol, interval string, limit int) (Candles, error) {
	if limit <= 0 {
		return nil, nil
	}
	var all Candles
	var endTime int64
	for len(all) < limit {
		want := limit - len(all)
		if want > fetchBatchSize {
			want = fetchBatchSize
		}
		batch, err := f.gw.Klines(ctx, symbol, interval, want, endTime)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(Candles{}, append(batch, all...)...)
		if batch[0].OpenTime <= 0 {
			break
		}
		endTime = batch[0].OpenTime
		if len(batch) < want {
			// End of available history.
			break
		}
		if len(all) < limit {
			f.sleepFn(ctx, f.nextDelay())
			if ctx.Err() != nil {
				break
			}
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	if len(all) == 0 {
		return nil, nil
	}
	if len(all) < limit {
		logger.Debugf("[%s-%s] short history: %d of %d requested candles", symbol, interval, len(all), limit)
	}
	return all, nil
}

func (f *Fetcher) nextDelay() time.Duration {
	return f.baseDelay + time.Duration(f.randSource.Int63n(int64(f.jitter)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
