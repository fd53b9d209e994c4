package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	// SQL drivers for the sqlite and postgres backends
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/roster/pkg/observability"
)

// Open builds the store selected by cfg.Type. When metrics is non-nil the
// backend is instrumented; when cfg.CacheEnabled an LRU is layered on top.
func Open(ctx context.Context, cfg Config, metrics *observability.Metrics) (Store, error) {
	base, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var store Store = base
	if metrics != nil {
		store = NewInstrumentedStore(store, cfg.Type, metrics)
	}
	if cfg.CacheEnabled {
		cached, err := NewCachedStore(store, cfg.CacheSize, metrics)
		if err != nil {
			Close(base)
			return nil, err
		}
		store = cached
	}
	return store, nil
}

func openBackend(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFilesystem:
		return NewFileSystemStore(cfg.FilesystemRoot)
	case BackendRedis:
		return NewRedisStore(cfg)
	case BackendSQLite:
		return openSQL(ctx, DialectSQLite, cfg.SQLiteDSN, cfg)
	case BackendPostgres:
		return openSQL(ctx, DialectPostgres, cfg.PostgresURL, cfg)
	case BackendS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func openSQL(ctx context.Context, dialect Dialect, dsn string, cfg Config) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == DialectPostgres && cfg.PostgresMaxConns > 0 {
		db.SetMaxOpenConns(cfg.PostgresMaxConns)
	}
	if dialect == DialectSQLite {
		// SQLite allows a single writer; serialize at the pool.
		db.SetMaxOpenConns(1)
	}

	store, err := NewSQLStore(db, dialect, cfg.SQLTable)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
