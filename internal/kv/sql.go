package kv

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour used by SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps values in a single key/value table of a SQL database
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore opens the database and ensures the key/value table exists
func NewSQLStore(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// A single connection serializes writers on the file
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS drome_kv (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create key/value table: %w", err)
	}
	return nil
}

// bind rewrites $N placeholders for dialects that use ?
func (s *SQLStore) bind(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	out := make([]byte, 0, len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			out = append(out, '?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// Get retrieves the value stored under key
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT value FROM drome_kv WHERE name = $1`), key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts the value stored under key
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO drome_kv (name, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, s.bind(query), key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap stores value when the row still holds old. A nil old only
// inserts a missing row.
func (s *SQLStore) CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error) {
	var (
		res sql.Result
		err error
	)
	now := time.Now().UTC()
	if old == nil {
		query := `
			INSERT INTO drome_kv (name, value, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`
		res, err = s.db.ExecContext(ctx, s.bind(query), key, string(value), now)
	} else {
		query := `UPDATE drome_kv SET value = $1, updated_at = $2 WHERE name = $3 AND value = $4`
		res, err = s.db.ExecContext(ctx, s.bind(query), string(value), now, key, string(old))
	}
	if err != nil {
		return false, fmt.Errorf("failed to swap key %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to swap key %s: %w", key, err)
	}
	return n == 1, nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
