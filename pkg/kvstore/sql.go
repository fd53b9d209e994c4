package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
)

// Dialect selects placeholder and column-type syntax for SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore keeps documents in a two-column table
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// NewSQLStore creates a store over db. The table is created by EnsureSchema.
func NewSQLStore(db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if table == "" {
		table = "roster_kv"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
	return &SQLStore{db: db, dialect: dialect, table: table}, nil
}

// EnsureSchema creates the backing table if it does not exist
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	valueType := "BLOB"
	if s.dialect == DialectPostgres {
		valueType = "BYTEA"
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		doc_key TEXT PRIMARY KEY,
		doc_value %s NOT NULL
	)`, s.table, valueType)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *SQLStore) selectQuery() string {
	return fmt.Sprintf("SELECT doc_value FROM %s WHERE doc_key = %s", s.table, s.placeholder(1))
}

func (s *SQLStore) upsertQuery() string {
	return fmt.Sprintf(
		"INSERT INTO %s (doc_key, doc_value) VALUES (%s, %s) ON CONFLICT (doc_key) DO UPDATE SET doc_value = excluded.doc_value",
		s.table, s.placeholder(1), s.placeholder(2))
}

func (s *SQLStore) deleteQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE doc_key = %s", s.table, s.placeholder(1))
}

// Get implements Store.Get
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.selectQuery(), key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, true, nil
}

// Put implements Store.Put
func (s *SQLStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), key, data); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.Delete
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQuery(), key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PutBatch writes all docs in a single SQL transaction
func (s *SQLStore) PutBatch(ctx context.Context, docs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	query := s.upsertQuery()
	for k, v := range docs {
		if _, err := tx.ExecContext(ctx, query, k, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to put %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}
