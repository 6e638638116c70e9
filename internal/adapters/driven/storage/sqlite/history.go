package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// performanceHistory implements driven.PerformanceHistory.
type performanceHistory struct {
	store    *Store
	capacity int
}

var _ driven.PerformanceHistory = (*performanceHistory)(nil)

// Append records a sample and trims the strategy's history to the most
// recent capacity entries. Insert and trim run in one transaction so
// concurrent appenders never observe an over-capacity history.
func (h *performanceHistory) Append(ctx context.Context, record domain.PerformanceRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	tx, err := h.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO performance_history (strategy, duration_ms, token_cost, quality_score, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(record.Strategy), record.Duration.Milliseconds(), record.TokenCost, record.QualityScore, record.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM performance_history
		WHERE strategy = ? AND id NOT IN (
			SELECT id FROM performance_history
			WHERE strategy = ?
			ORDER BY id DESC
			LIMIT ?
		)
	`, string(record.Strategy), string(record.Strategy), h.capacity)
	if err != nil {
		return fmt.Errorf("trimming history: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to limit of the newest samples, newest last.
func (h *performanceHistory) Recent(ctx context.Context, strategy domain.Strategy, limit int) ([]domain.PerformanceRecord, error) {
	if limit <= 0 {
		limit = h.capacity
	}

	rows, err := h.store.db.QueryContext(ctx, `
		SELECT strategy, duration_ms, token_cost, quality_score, recorded_at
		FROM performance_history
		WHERE strategy = ?
		ORDER BY id DESC
		LIMIT ?
	`, string(strategy), limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []domain.PerformanceRecord
	for rows.Next() {
		var rec domain.PerformanceRecord
		var strat string
		var durationMs int64
		if err := rows.Scan(&strat, &durationMs, &rec.TokenCost, &rec.QualityScore, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Strategy = domain.Strategy(strat)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	// Query returns newest first; callers expect newest last.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Count returns the number of stored samples for a strategy.
func (h *performanceHistory) Count(ctx context.Context, strategy domain.Strategy) (int, error) {
	var n int
	err := h.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM performance_history WHERE strategy = ?
	`, string(strategy)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
