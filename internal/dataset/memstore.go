package dataset

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store.
type MemStore struct {
	mu    sync.RWMutex
	last  RowID
	rows  map[RowID]Record
	order []RowID
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[RowID]Record)}
}

func (m *MemStore) Insert(ctx context.Context, r Record) (RowID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last++
	r.ID = m.last
	m.rows[r.ID] = r
	m.order = append(m.order, r.ID)
	return r.ID, nil
}

// InsertAll inserts every record under one lock.
func (m *MemStore) InsertAll(ctx context.Context, recs []Record) ([]RowID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]RowID, len(recs))
	for i, r := range recs {
		m.last++
		r.ID = m.last
		m.rows[r.ID] = r
		m.order = append(m.order, r.ID)
		ids[i] = r.ID
	}
	return ids, nil
}

func (m *MemStore) Get(_ context.Context, id RowID) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[id]
	if !ok {
		return Record{}, fmt.Errorf("get row_id=%d: %w", id, ErrNotFound)
	}
	return r, nil
}

func (m *MemStore) Scan(ctx context.Context, fn func(Record) error) error {
	m.mu.RLock()
	recs := make([]Record, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.rows[id])
	}
	m.mu.RUnlock()
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemStore) Update(_ context.Context, id RowID, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("update row_id=%d: %w", id, ErrNotFound)
	}
	p.apply(&r)
	m.rows[id] = r
	return nil
}

func (m *MemStore) Delete(_ context.Context, ids ...RowID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			delete(m.rows, id)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.rows[id]; ok {
			kept = append(kept, id)
		}
	}
	m.order = kept
	return n, nil
}

func (m *MemStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}
