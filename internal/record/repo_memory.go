package record

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory store useful for tests and local runs.
// It is not intended for production use.

type MemoryStore struct {
	mu      sync.Mutex
	tables  map[string]map[string]Row
	updates int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: map[string]map[string]Row{}}
}

func (s *MemoryStore) Insert(ctx context.Context, table string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.tables[table]
	if !ok {
		rows = map[string]Row{}
		s.tables[table] = rows
	}
	if _, exists := rows[row.ID]; exists {
		return ErrDuplicate
	}
	rows[row.ID] = cloneRow(row)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, table, id string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tables[table][id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return cloneRow(row), nil
}

func (s *MemoryStore) UpdateAttributes(ctx context.Context, table, id string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tables[table][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range values {
		row.Attributes[k] = v
	}
	s.updates++
	return nil
}

// Updates returns how many partial updates were applied.
func (s *MemoryStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func cloneRow(r Row) Row {
	out := Row{ID: r.ID, CreatedAt: r.CreatedAt, Attributes: make(map[string]any, len(r.Attributes))}
	for k, v := range r.Attributes {
		out.Attributes[k] = v
	}
	return out
}
