package store

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors the real store's behavior: append order is preserved, ids are not
// unique, and updates touch every row carrying the id.
type MemStore struct {
	mu          sync.Mutex
	collections map[string][]Row
}

func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string][]Row)}
}

func (s *MemStore) ListAll(_ context.Context, collection string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.collections[collection]
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (s *MemStore) FindByID(_ context.Context, collection, id string) (Row, error) {
	idLabel, err := IDLabel(collection)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.collections[collection]
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i][idLabel] == id {
			return rows[i].Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) Append(_ context.Context, collection string, row Row) error {
	idLabel, err := IDLabel(collection)
	if err != nil {
		return err
	}
	if row[idLabel] == "" {
		return fmt.Errorf("append to %s: row has no %q", collection, idLabel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[collection] = append(s.collections[collection], row.Clone())
	return nil
}

func (s *MemStore) UpdateByID(_ context.Context, collection, id string, partial Row) error {
	idLabel, err := IDLabel(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := false
	for _, r := range s.collections[collection] {
		if r[idLabel] == id {
			r.Merge(partial)
			updated = true
		}
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}
