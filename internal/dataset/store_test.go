package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemStore() },
		"sqlite": func() Store {
			s, err := OpenSQLite("")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreBackends(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("insert assigns ascending ids", func(t *testing.T) {
				s := open()
				a, err := s.Insert(ctx, Record{Country: "A", Year: 2010})
				require.NoError(t, err)
				b, err := s.Insert(ctx, Record{Country: "A", Year: 2011, ID: 99})
				require.NoError(t, err)
				assert.Greater(t, b, a)

				got, err := s.Get(ctx, b)
				require.NoError(t, err)
				assert.Equal(t, 2011, got.Year)
				assert.Equal(t, b, got.ID)
			})

			t.Run("ids are never reused after delete", func(t *testing.T) {
				s := open()
				a, _ := s.Insert(ctx, Record{Country: "A", Year: 2010})
				b, _ := s.Insert(ctx, Record{Country: "A", Year: 2011})
				n, err := s.Delete(ctx, b)
				require.NoError(t, err)
				assert.Equal(t, 1, n)
				c, err := s.Insert(ctx, Record{Country: "A", Year: 2012})
				require.NoError(t, err)
				assert.NotEqual(t, b, c)
				assert.Greater(t, c, a)
			})

			t.Run("scan visits in row id order", func(t *testing.T) {
				s := open()
				for _, y := range []int{2012, 2010, 2011} {
					_, err := s.Insert(ctx, Record{Country: "A", Year: y})
					require.NoError(t, err)
				}
				recs, err := Snapshot(ctx, s)
				require.NoError(t, err)
				require.Len(t, recs, 3)
				assert.Equal(t, []int{2012, 2010, 2011}, []int{recs[0].Year, recs[1].Year, recs[2].Year})
			})

			t.Run("update only touches patched fields", func(t *testing.T) {
				s := open()
				id, _ := s.Insert(ctx, Record{Country: "A", Year: 2010, AdultMortality: 120, GDP: 800})
				st := StatusDeveloped
				le := 71.5
				require.NoError(t, s.Update(ctx, id, Patch{Status: &st, LifeExpectancy: &le}))
				got, err := s.Get(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, StatusDeveloped, got.Status)
				assert.Equal(t, 71.5, got.LifeExpectancy)
				assert.Equal(t, 120.0, got.AdultMortality)
				assert.Equal(t, 800.0, got.GDP)
				assert.Equal(t, "A", got.Country)
			})

			t.Run("unknown ids", func(t *testing.T) {
				s := open()
				le := 1.0
				assert.ErrorIs(t, s.Update(ctx, 42, Patch{LifeExpectancy: &le}), ErrNotFound)
				assert.ErrorIs(t, s.Update(ctx, 42, Patch{}), ErrNotFound)
				_, err := s.Get(ctx, 42)
				assert.ErrorIs(t, err, ErrNotFound)
				n, err := s.Delete(ctx, 42)
				require.NoError(t, err)
				assert.Zero(t, n)
			})

			t.Run("scan callback may write", func(t *testing.T) {
				s := open()
				for _, y := range []int{2010, 2011} {
					_, _ = s.Insert(ctx, Record{Country: "A", Year: y})
				}
				st := StatusDeveloping
				err := s.Scan(ctx, func(r Record) error {
					return s.Update(ctx, r.ID, Patch{Status: &st})
				})
				require.NoError(t, err)
				recs, err := Filter(ctx, s, func(r Record) bool { return r.Status == StatusDeveloping })
				require.NoError(t, err)
				assert.Len(t, recs, 2)
			})

			t.Run("len and group by", func(t *testing.T) {
				s := open()
				for _, r := range []Record{
					{Country: "B", Year: 2010},
					{Country: "A", Year: 2010},
					{Country: "B", Year: 2011},
				} {
					_, _ = s.Insert(ctx, r)
				}
				n, err := s.Len(ctx)
				require.NoError(t, err)
				assert.Equal(t, 3, n)

				groups, err := GroupBy(ctx, s, ByCountry)
				require.NoError(t, err)
				require.Len(t, groups, 2)
				assert.Equal(t, "B", groups[0].Key)
				assert.Len(t, groups[0].Records, 2)
				assert.Equal(t, "A", groups[1].Key)
			})
		})
	}
}

func TestInsertAll(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			ids, err := InsertAll(ctx, s, []Record{{Country: "A", Year: 2010}, {Country: "A", Year: 2011}})
			require.NoError(t, err)
			require.Len(t, ids, 2)
			assert.Less(t, ids[0], ids[1])
			n, err := s.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

// flakyStore fails the nth Insert. It embeds the Store interface only, so
// it has no batch path.
type flakyStore struct {
	Store
	failAt int
	calls  int
}

func (f *flakyStore) Insert(ctx context.Context, r Record) (RowID, error) {
	f.calls++
	if f.calls == f.failAt {
		return 0, errors.New("disk full")
	}
	return f.Store.Insert(ctx, r)
}

func TestInsertAllUndoesPartialInsert(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{Store: NewMemStore(), failAt: 3}
	_, err := InsertAll(ctx, s, []Record{
		{Country: "A", Year: 2010},
		{Country: "A", Year: 2011},
		{Country: "A", Year: 2012},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert record 3: disk full")
	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteFilePersists(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/data/records.db"
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = s.Insert(ctx, Record{Country: "A", Year: 2010, LifeExpectancy: 70})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	n, err := s2.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"Developing", StatusDeveloping},
		{" developed ", StatusDeveloped},
		{"DEVELOPING", StatusDeveloping},
		{"", StatusUnknown},
		{"emerging", StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.in), tt.in)
	}
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 71.0, Round1((70.0+72.0)/2))
	assert.Equal(t, 60.5, Round1((60.0+61.0)/2))
	assert.Equal(t, 70.3, Round1(70.25))
	assert.Equal(t, -70.3, Round1(-70.25))
}

func TestValidate(t *testing.T) {
	var me *MalformedRecordError
	err := Validate(Record{ID: 3, Year: 2010})
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "country", me.Field)
	assert.Contains(t, err.Error(), "row_id=3")

	err = Validate(Record{ID: 4, Country: "A"})
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "year", me.Field)

	assert.NoError(t, Validate(Record{Country: "A", Year: 2010}))
}
