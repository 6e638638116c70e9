// Package file implements the document source port over local files.
// Plain .txt files load as raw text; .json files load as structured
// OCR output with page-indexed blocks.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// Ensure DocumentSource implements the interface.
var _ driven.DocumentSource = (*DocumentSource)(nil)

// DocumentSource loads documents from the local filesystem.
type DocumentSource struct{}

// NewDocumentSource creates a filesystem-backed document source.
func NewDocumentSource() *DocumentSource {
	return &DocumentSource{}
}

// jsonDocument is the on-disk shape produced by the OCR collaborator.
type jsonDocument struct {
	Text          string      `json:"text"`
	ReferenceDate string      `json:"reference_date"`
	Blocks        []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	Text       string  `json:"text"`
	PageIndex  int     `json:"page_index"`
	Confidence float64 `json:"confidence"`
}

// Load reads one document from path. JSON files are decoded as OCR
// output; anything else is treated as plain UTF-8 text.
func (s *DocumentSource) Load(ctx context.Context, path string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(data)
	}

	return &domain.RawDocument{Text: string(data)}, nil
}

// decodeJSON accepts either a document object or a bare block array.
func decodeJSON(data []byte) (*domain.RawDocument, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var blocks []jsonBlock
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, fmt.Errorf("decode blocks: %w", err)
		}
		return &domain.RawDocument{Blocks: toDomainBlocks(blocks)}, nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	out := &domain.RawDocument{
		Text:   doc.Text,
		Blocks: toDomainBlocks(doc.Blocks),
	}

	if doc.ReferenceDate != "" {
		d, err := time.Parse("2006-01-02", doc.ReferenceDate)
		if err != nil {
			logger.Warn("Ignoring invalid reference_date %q", doc.ReferenceDate)
		} else {
			out.ReferenceDate = d
		}
	}

	return out, nil
}

func toDomainBlocks(blocks []jsonBlock) []domain.TextBlock {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]domain.TextBlock, len(blocks))
	for i, b := range blocks {
		out[i] = domain.TextBlock{
			Text:       b.Text,
			PageIndex:  b.PageIndex,
			Confidence: b.Confidence,
		}
	}
	return out
}
