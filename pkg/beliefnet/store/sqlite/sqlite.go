package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/beliefnet/pkg/beliefnet/store"
)

// Two append-only tables, one row per recorded item. Autoincrement ids
// double as the replay order.
const schema = `
CREATE TABLE IF NOT EXISTS facts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	result REAL NOT NULL
);
`

// sqliteStore persists the question history in a single SQLite file.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens the history database at path, creating the file and
// the schema on first use. WAL mode keeps readers off the write path.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// AppendFact records an evidence assignment
func (s *sqliteStore) AppendFact(ctx context.Context, f store.Fact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (key, value) VALUES (?, ?)`, f.Key, f.Value)
	return err
}

// Facts returns all recorded evidence assignments in insertion order
func (s *sqliteStore) Facts(ctx context.Context) ([]store.Fact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, key, value FROM facts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []store.Fact
	for rows.Next() {
		var f store.Fact
		if err := rows.Scan(&f.ID, &f.Key, &f.Value); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// AppendResult records a posterior probability
func (s *sqliteStore) AppendResult(ctx context.Context, r store.Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (result) VALUES (?)`, r.Posterior)
	return err
}

// Results returns all recorded posteriors in insertion order
func (s *sqliteStore) Results(ctx context.Context) ([]store.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, result FROM results ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []store.Result
	for rows.Next() {
		var r store.Result
		if err := rows.Scan(&r.ID, &r.Posterior); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
