package store

import (
	"sync"

	"github.com/AngelCh415/campaign-dashboard/internal/facets"
	"github.com/AngelCh415/campaign-dashboard/internal/models"
)

// MemoryStore holds the normalized dataset. Writers replace the whole set;
// readers get the current slice, which is never mutated afterwards.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Record
	facets  *facets.Extractor
	version int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{facets: facets.New(nil)}
}

// Replace installs a new base record set and recomputes the derived facets.
func (s *MemoryStore) Replace(records []models.Record) {
	cp := make([]models.Record, len(records))
	copy(cp, records)
	ext := facets.New(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cp
	s.facets = ext
	s.version++
}

// All returns the base record set. Callers must not modify it.
func (s *MemoryStore) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Facets returns the extractor derived from the current record set.
func (s *MemoryStore) Facets() *facets.Extractor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facets
}

// Snapshot returns records and facets from the same version.
func (s *MemoryStore) Snapshot() ([]models.Record, *facets.Extractor) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.facets
}

// Version increases on every Replace.
func (s *MemoryStore) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
