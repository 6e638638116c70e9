package memory

import (
	"context"
	"sync"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
)

// Ensure DiseaseCodeStore implements the interface.
var _ driven.DiseaseCodeStore = (*DiseaseCodeStore)(nil)

// DiseaseCodeStore is an in-memory disease code index.
type DiseaseCodeStore struct {
	mu    sync.RWMutex
	codes map[string]domain.DiseaseCode
}

// NewDiseaseCodeStore creates an empty in-memory code index.
func NewDiseaseCodeStore() *DiseaseCodeStore {
	return &DiseaseCodeStore{
		codes: make(map[string]domain.DiseaseCode),
	}
}

// Get returns the entry for a code. Deprecated entries resolve to
// their replacement when it is indexed.
func (s *DiseaseCodeStore) Get(_ context.Context, code string) (*domain.DiseaseCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if entry.Deprecated && entry.ReplacedBy != "" {
		if repl, ok := s.codes[entry.ReplacedBy]; ok {
			return &repl, nil
		}
	}
	return &entry, nil
}

// Put stores or updates an index entry.
func (s *DiseaseCodeStore) Put(_ context.Context, code domain.DiseaseCode) error {
	if code.Code == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Code] = code
	return nil
}

// Count returns the number of indexed codes.
func (s *DiseaseCodeStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes), nil
}
