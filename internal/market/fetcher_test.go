package market

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedKlines serves a fixed oldest-first history the way the exchange
// does: the newest candles strictly before endTime, capped at limit.
type pagedKlines struct {
	history  Candles
	calls    int
	endTimes []int64
	err      error
}

func (p *pagedKlines) Klines(ctx context.Context, symbol, interval string, limit int, endTime int64) (Candles, error) {
	p.calls++
	p.endTimes = append(p.endTimes, endTime)
	if p.err != nil {
		return nil, p.err
	}
	avail := p.history
	if endTime > 0 {
		cut := len(avail)
		for cut > 0 && avail[cut-1].OpenTime >= endTime {
			cut--
		}
		avail = avail[:cut]
	}
	if len(avail) > limit {
		avail = avail[len(avail)-limit:]
	}
	return append(Candles{}, avail...), nil
}

func history(n int) Candles {
	out := make(Candles, n)
	for i := range out {
		out[i] = Candle{OpenTime: int64(i+1) * 1000, Close: float64(i)}
	}
	return out
}

func newTestFetcher(src KlineSource) *Fetcher {
	f := NewFetcher(src, time.Millisecond, time.Millisecond)
	f.sleepFn = func(context.Context, time.Duration) {}
	f.randSource = rand.New(rand.NewSource(1))
	return f
}

func TestFetchPaginatesBackward(t *testing.T) {
	src := &pagedKlines{history: history(250)}
	f := newTestFetcher(src)

	got, err := f.Fetch(context.Background(), "BTCUSDT", "1h", 250)
	require.NoError(t, err)
	require.Len(t, got, 250)

	// Oldest first, contiguous.
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].OpenTime, got[i-1].OpenTime)
	}
	// Batches of at most 100: 100 + 100 + 50.
	assert.Equal(t, 3, src.calls)
	// First request is open-ended, later ones anchor on the oldest candle
	// fetched so far.
	require.Len(t, src.endTimes, 3)
	assert.Zero(t, src.endTimes[0])
	assert.Equal(t, got[150].OpenTime, src.endTimes[1])
	assert.Equal(t, got[50].OpenTime, src.endTimes[2])
}

func TestFetchShortHistoryIsPartial(t *testing.T) {
	src := &pagedKlines{history: history(40)}
	f := newTestFetcher(src)

	got, err := f.Fetch(context.Background(), "NEWUSDT", "1h", 200)
	require.NoError(t, err)
	assert.Len(t, got, 40)
}

func TestFetchNoDataReturnsNil(t *testing.T) {
	src := &pagedKlines{}
	f := newTestFetcher(src)

	got, err := f.Fetch(context.Background(), "GHOSTUSDT", "1h", 200)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFetchPropagatesErrors(t *testing.T) {
	src := &pagedKlines{err: fmt.Errorf("server busy")}
	f := newTestFetcher(src)

	_, err := f.Fetch(context.Background(), "BTCUSDT", "1h", 200)
	assert.Error(t, err)
}

func TestFetchZeroLimit(t *testing.T) {
	src := &pagedKlines{history: history(10)}
	f := newTestFetcher(src)

	got, err := f.Fetch(context.Background(), "BTCUSDT", "1h", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, src.calls)
}
