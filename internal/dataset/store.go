package dataset

import (
	"context"
	"fmt"
)

// Store owns the record collection for the duration of a pipeline run.
// Scan visits records in ascending RowID order and receives copies, so the
// callback may call Update or Delete on the same store.
type Store interface {
	Insert(ctx context.Context, r Record) (RowID, error)
	Get(ctx context.Context, id RowID) (Record, error)
	Scan(ctx context.Context, fn func(Record) error) error
	Update(ctx context.Context, id RowID, p Patch) error
	Delete(ctx context.Context, ids ...RowID) (int, error)
	Len(ctx context.Context) (int, error)
}

// BatchInserter is implemented by stores that insert many records in one
// atomic step.
type BatchInserter interface {
	InsertAll(ctx context.Context, recs []Record) ([]RowID, error)
}

// InsertAll inserts recs all-or-nothing. Stores without batch support have
// any records inserted before a failure deleted again.
func InsertAll(ctx context.Context, s Store, recs []Record) ([]RowID, error) {
	if b, ok := s.(BatchInserter); ok {
		return b.InsertAll(ctx, recs)
	}
	ids := make([]RowID, 0, len(recs))
	for i, r := range recs {
		id, err := s.Insert(ctx, r)
		if err != nil {
			if len(ids) > 0 {
				if _, derr := s.Delete(context.WithoutCancel(ctx), ids...); derr != nil {
					return nil, fmt.Errorf("insert record %d: %w (undo failed: %v)", i+1, err, derr)
				}
			}
			return nil, fmt.Errorf("insert record %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Snapshot returns every record in ascending RowID order.
func Snapshot(ctx context.Context, s Store) ([]Record, error) {
	return Filter(ctx, s, nil)
}

// Filter returns the records for which pred is true. A nil pred keeps all.
func Filter(ctx context.Context, s Store, pred func(Record) bool) ([]Record, error) {
	var out []Record
	err := s.Scan(ctx, func(r Record) error {
		if pred == nil || pred(r) {
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// Group is a set of records sharing a grouping key.
type Group[K comparable] struct {
	Key     K
	Records []Record
}

// GroupBy partitions the store by key. Groups appear in order of their
// first record's RowID; records within a group keep RowID order.
func GroupBy[K comparable](ctx context.Context, s Store, key func(Record) K) ([]Group[K], error) {
	recs, err := Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}
	return GroupRecords(recs, key), nil
}

// GroupRecords is GroupBy over an in-memory slice.
func GroupRecords[K comparable](recs []Record, key func(Record) K) []Group[K] {
	idx := map[K]int{}
	var out []Group[K]
	for _, r := range recs {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Group[K]{Key: k})
		}
		out[i].Records = append(out[i].Records, r)
	}
	return out
}

// ByCountry is a GroupBy key function.
func ByCountry(r Record) string { return r.Country }

// ByKey is a GroupBy key function over the business key.
func ByKey(r Record) Key { return r.Key() }

