package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// diseaseCodeStore implements driven.DiseaseCodeStore.
type diseaseCodeStore struct {
	store *Store
}

var _ driven.DiseaseCodeStore = (*diseaseCodeStore)(nil)

// Get returns the entry for a code. A deprecated entry resolves to its
// replacement when the replacement is indexed.
func (s *diseaseCodeStore) Get(ctx context.Context, code string) (*domain.DiseaseCode, error) {
	entry, err := s.get(ctx, code)
	if err != nil {
		return nil, err
	}
	if entry.Deprecated && entry.ReplacedBy != "" {
		repl, err := s.get(ctx, entry.ReplacedBy)
		if err == nil {
			return repl, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return entry, nil
}

func (s *diseaseCodeStore) get(ctx context.Context, code string) (*domain.DiseaseCode, error) {
	var entry domain.DiseaseCode
	var deprecated int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT code, kor_name, eng_name, category, deprecated, replaced_by
		FROM disease_codes WHERE code = ?
	`, code).Scan(&entry.Code, &entry.KorName, &entry.EngName, &entry.Category, &deprecated, &entry.ReplacedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying code %s: %w", code, err)
	}
	entry.Deprecated = deprecated != 0
	return &entry, nil
}

// Put stores or updates an index entry.
func (s *diseaseCodeStore) Put(ctx context.Context, code domain.DiseaseCode) error {
	if code.Code == "" {
		return domain.ErrInvalidInput
	}

	deprecated := 0
	if code.Deprecated {
		deprecated = 1
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO disease_codes (code, kor_name, eng_name, category, deprecated, replaced_by)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			kor_name = excluded.kor_name,
			eng_name = excluded.eng_name,
			category = excluded.category,
			deprecated = excluded.deprecated,
			replaced_by = excluded.replaced_by
	`, code.Code, code.KorName, code.EngName, code.Category, deprecated, code.ReplacedBy)
	if err != nil {
		return fmt.Errorf("upserting code %s: %w", code.Code, err)
	}
	return nil
}

// Count returns the number of indexed codes.
func (s *diseaseCodeStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disease_codes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting codes: %w", err)
	}
	return n, nil
}
