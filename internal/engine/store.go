package engine

import (
	"sync"

	"vizboard/internal/models"
)

// TableStore holds the named tables of one dashboard session. Tables are
// registered once by the ingestion side and read-only afterwards.
type TableStore struct {
	mu     sync.RWMutex
	tables map[string]*models.Table
	order  []string
}

func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]*models.Table)}
}

// Add registers a table under its name, replacing any previous table with
// the same name.
func (s *TableStore) Add(t *models.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[t.Name]; !exists {
		s.order = append(s.order, t.Name)
	}
	s.tables[t.Name] = t
}

// Get returns the named table, or nil.
func (s *TableStore) Get(name string) *models.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[name]
}

// First returns the first registered table, or nil. Charts currently draw
// from a single table per dashboard, so this is the default data source.
func (s *TableStore) First() *models.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.order) == 0 {
		return nil
	}
	return s.tables[s.order[0]]
}

// All returns the registered tables in insertion order.
func (s *TableStore) All() []*models.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name])
	}
	return out
}
