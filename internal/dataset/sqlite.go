package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single SQLite table.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path. An empty path
// opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps an in-memory database alive on a single connection.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		// AUTOINCREMENT keeps row IDs from being reused after deletes.
		`CREATE TABLE IF NOT EXISTS records (
			row_id INTEGER PRIMARY KEY AUTOINCREMENT,
			country TEXT NOT NULL,
			year INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			life_expectancy REAL NOT NULL DEFAULT 0,
			adult_mortality REAL NOT NULL DEFAULT 0,
			gdp REAL NOT NULL DEFAULT 0,
			bmi REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_key ON records(country, year)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

const recordColumns = `row_id, country, year, status, life_expectancy, adult_mortality, gdp, bmi`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc rowScanner) (Record, error) {
	var r Record
	var status string
	err := sc.Scan(&r.ID, &r.Country, &r.Year, &status, &r.LifeExpectancy, &r.AdultMortality, &r.GDP, &r.BMI)
	r.Status = Status(status)
	return r, err
}

func (s *SQLiteStore) Insert(ctx context.Context, r Record) (RowID, error) {
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO records (country, year, status, life_expectancy, adult_mortality, gdp, bmi)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Country, r.Year, string(r.Status), r.LifeExpectancy, r.AdultMortality, r.GDP, r.BMI,
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return RowID(id), nil
}

// InsertAll inserts every record in one transaction; nothing is kept when
// any insert fails.
func (s *SQLiteStore) InsertAll(ctx context.Context, recs []Record) ([]RowID, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (country, year, status, life_expectancy, adult_mortality, gdp, bmi)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	defer stmt.Close()
	ids := make([]RowID, len(recs))
	for i, r := range recs {
		res, err := stmt.ExecContext(ctx, r.Country, r.Year, string(r.Status), r.LifeExpectancy, r.AdultMortality, r.GDP, r.BMI)
		if err != nil {
			return nil, fmt.Errorf("insert record %d: %w", i+1, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert record %d: %w", i+1, err)
		}
		ids[i] = RowID(id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("insert records: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id RowID) (Record, error) {
	r, err := scanRecord(s.conn.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE row_id = ?`, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get row_id=%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get row_id=%d: %w", id, err)
	}
	return r, nil
}

// Scan reads the full result set before invoking fn. The pool has a single
// connection, so fn could not otherwise write to the store.
func (s *SQLiteStore) Scan(ctx context.Context, fn func(Record) error) error {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+recordColumns+` FROM records ORDER BY row_id`)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}
	var recs []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan records: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("scan records: %w", err)
	}
	rows.Close()
	for _, r := range recs {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, id RowID, p Patch) error {
	var sets []string
	var args []any
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.LifeExpectancy != nil {
		sets = append(sets, "life_expectancy = ?")
		args = append(args, *p.LifeExpectancy)
	}
	if p.GDP != nil {
		sets = append(sets, "gdp = ?")
		args = append(args, *p.GDP)
	}
	if p.BMI != nil {
		sets = append(sets, "bmi = ?")
		args = append(args, *p.BMI)
	}
	if len(sets) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}
	args = append(args, int64(id))
	res, err := s.conn.ExecContext(ctx,
		`UPDATE records SET `+strings.Join(sets, ", ")+` WHERE row_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update row_id=%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row_id=%d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update row_id=%d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ids ...RowID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM records WHERE row_id = ?`)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	defer stmt.Close()
	total := 0
	for _, id := range ids {
		res, err := stmt.ExecContext(ctx, int64(id))
		if err != nil {
			return 0, fmt.Errorf("delete row_id=%d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete row_id=%d: %w", id, err)
		}
		total += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return total, nil
}

func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

var (
	_ Store         = (*SQLiteStore)(nil)
	_ Store         = (*MemStore)(nil)
	_ BatchInserter = (*SQLiteStore)(nil)
	_ BatchInserter = (*MemStore)(nil)
)
