// Package memory provides in-memory implementations of the driven
// storage ports. Used as defaults and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// Ensure PerformanceHistory implements the interface.
var _ driven.PerformanceHistory = (*PerformanceHistory)(nil)

// PerformanceHistory is a bounded in-memory rolling history of
// per-strategy performance samples.
type PerformanceHistory struct {
	mu       sync.RWMutex
	capacity int
	records  map[domain.Strategy][]domain.PerformanceRecord
}

// NewPerformanceHistory creates a history with the given per-strategy
// capacity. capacity <= 0 uses the default.
func NewPerformanceHistory(capacity int) *PerformanceHistory {
	if capacity <= 0 {
		capacity = driven.DefaultHistoryCapacity
	}
	return &PerformanceHistory{
		capacity: capacity,
		records:  make(map[domain.Strategy][]domain.PerformanceRecord),
	}
}

// Append records a sample and trims the strategy's history to the most
// recent capacity entries.
func (h *PerformanceHistory) Append(_ context.Context, record domain.PerformanceRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	recs := append(h.records[record.Strategy], record)
	if len(recs) > h.capacity {
		recs = recs[len(recs)-h.capacity:]
	}
	h.records[record.Strategy] = recs
	return nil
}

// Recent returns up to limit of the newest samples, newest last.
func (h *PerformanceHistory) Recent(_ context.Context, strategy domain.Strategy, limit int) ([]domain.PerformanceRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	recs := h.records[strategy]
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	out := make([]domain.PerformanceRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// Count returns the number of stored samples for a strategy.
func (h *PerformanceHistory) Count(_ context.Context, strategy domain.Strategy) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records[strategy]), nil
}
