package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpscan/internal/strategy"
)

func sig(id, symbol string, tpROI float64) strategy.Signal {
	return strategy.Signal{ID: id, Symbol: symbol, TPROI: tpROI}
}

func TestBatchReplaceDiscardsPrevious(t *testing.T) {
	b := NewBatch()
	b.Replace([]strategy.Signal{sig("a", "BTCUSDT", 6)})
	require.Equal(t, 1, b.Len())

	b.Replace([]strategy.Signal{sig("b", "ETHUSDT", 7), sig("c", "SOLUSDT", 5)})
	assert.Equal(t, 2, b.Len())
	_, ok := b.Get("a")
	assert.False(t, ok)
}

func TestBatchListRankedByReward(t *testing.T) {
	b := NewBatch()
	b.Replace([]strategy.Signal{
		sig("a", "BTCUSDT", 5.2),
		sig("b", "ETHUSDT", 9.1),
		sig("c", "SOLUSDT", 7.4),
	})

	list := b.List()
	require.Len(t, list, 3)
	assert.Equal(t, "ETHUSDT", list[0].Symbol)
	assert.Equal(t, "SOLUSDT", list[1].Symbol)
	assert.Equal(t, "BTCUSDT", list[2].Symbol)
}

func TestBatchRemove(t *testing.T) {
	b := NewBatch()
	b.Replace([]strategy.Signal{sig("a", "BTCUSDT", 6)})
	b.Remove("a")
	assert.Zero(t, b.Len())
	// Removing an unknown ID is a no-op.
	b.Remove("nope")
}

func TestBatchReplaceEmpty(t *testing.T) {
	b := NewBatch()
	b.Replace([]strategy.Signal{sig("a", "BTCUSDT", 6)})
	b.Replace(nil)
	assert.Zero(t, b.Len())
	assert.Empty(t, b.List())
}
