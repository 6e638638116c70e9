package driven

import (
	"context"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

// DiseaseCodeStore provides lookups against the disease code index
// built from the insurer codebooks. This is an optional service - when
// nil, code detection relies on pattern and range heuristics alone.
type DiseaseCodeStore interface {
	// Get returns the entry for a code, resolving deprecated codes to
	// their replacement. Returns domain.ErrNotFound for unknown codes.
	Get(ctx context.Context, code string) (*domain.DiseaseCode, error)

	// Put stores or updates an index entry.
	Put(ctx context.Context, code domain.DiseaseCode) error

	// Count returns the number of indexed codes.
	Count(ctx context.Context) (int, error)
}
