package driven

import (
	"context"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

// DocumentSource supplies recovered document text from the OCR or
// extraction collaborator. Sources may return plain text or structured
// blocks; the pipeline accepts both shapes.
type DocumentSource interface {
	// Load reads one document. Implementations populate Blocks when
	// the underlying material is block-shaped, Text otherwise.
	Load(ctx context.Context, uri string) (*domain.RawDocument, error)
}
