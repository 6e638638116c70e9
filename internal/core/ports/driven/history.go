package driven

import (
	"context"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

// DefaultHistoryCapacity bounds the rolling history per strategy key.
const DefaultHistoryCapacity = 50

// PerformanceHistory is a bounded rolling store of per-strategy
// performance samples, consulted by the strategy selector.
//
// Implementations must support concurrent append-and-trim: appending a
// record trims the history for that strategy key to the most recent
// capacity entries.
type PerformanceHistory interface {
	// Append records a sample and trims the strategy's history to the
	// configured capacity.
	Append(ctx context.Context, record domain.PerformanceRecord) error

	// Recent returns up to limit of the newest samples for a strategy,
	// newest last.
	Recent(ctx context.Context, strategy domain.Strategy, limit int) ([]domain.PerformanceRecord, error)

	// Count returns the number of stored samples for a strategy.
	Count(ctx context.Context, strategy domain.Strategy) (int, error)
}
