package scanner

import (
	"sort"
	"sync"

	"perpscan/internal/strategy"
)

// Batch is the scan-owned signal set. Exactly one writer (the scanner)
// replaces it wholesale; readers (operator API, executor) always observe a
// complete batch, never a partially cleared one.
type Batch struct {
	mu      sync.RWMutex
	signals map[string]strategy.Signal // keyed by signal ID
}

func NewBatch() *Batch {
	return &Batch{signals: make(map[string]strategy.Signal)}
}

// Replace swaps the whole batch atomically.
func (b *Batch) Replace(signals []strategy.Signal) {
	next := make(map[string]strategy.Signal, len(signals))
	for _, s := range signals {
		next[s.ID] = s
	}
	b.mu.Lock()
	b.signals = next
	b.mu.Unlock()
}

// List returns the current batch ordered by TP ROI descending, the same
// ranking order execution uses.
func (b *Batch) List() []strategy.Signal {
	b.mu.RLock()
	out := make([]strategy.Signal, 0, len(b.signals))
	for _, s := range b.signals {
		out = append(out, s)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TPROI > out[j].TPROI })
	return out
}

func (b *Batch) Get(id string) (strategy.Signal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.signals[id]
	return s, ok
}

// Remove deletes a consumed signal (successful order execution).
func (b *Batch) Remove(id string) {
	b.mu.Lock()
	delete(b.signals, id)
	b.mu.Unlock()
}

func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.signals)
}
