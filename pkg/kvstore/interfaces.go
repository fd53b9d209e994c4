package kvstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"
)

// Store is the key-value persistence boundary. Documents are opaque byte
// slices read and written wholesale; there are no partial-document operations.
type Store interface {
	// Get returns the document stored under key. found is false when the key
	// is absent, which is not an error.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)

	// Put replaces the document stored under key
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// BatchPutter is implemented by stores that can write several documents
// atomically (all or nothing).
type BatchPutter interface {
	PutBatch(ctx context.Context, docs map[string][]byte) error
}

// Pinger is implemented by stores backed by a remote service
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend names reported in metrics and configuration
const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendRedis      = "redis"
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendS3         = "s3"
)

// Config for the key-value backend
type Config struct {
	Type string

	// Filesystem config
	FilesystemRoot string

	// Redis config
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RedisMaxRetries int
	RedisPoolSize   int

	// SQL config (sqlite and postgres)
	SQLiteDSN        string
	PostgresURL      string
	PostgresMaxConns int
	SQLTable         string

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3Prefix       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// Read-through cache
	CacheEnabled bool
	CacheSize    int

	// Timeout applied to backend connection checks
	ConnectTimeout time.Duration
}

// DefaultConfig returns the in-memory configuration used for demos and tests
func DefaultConfig() Config {
	return Config{
		Type:             BackendMemory,
		FilesystemRoot:   "/tmp/roster",
		RedisURL:         "redis://localhost:6379/0",
		RedisDB:          -1,
		RedisMaxRetries:  3,
		RedisPoolSize:    10,
		SQLiteDSN:        "file:roster.db?cache=shared",
		PostgresMaxConns: 10,
		SQLTable:         "roster_kv",
		S3Region:         "us-east-1",
		CacheEnabled:     false,
		CacheSize:        64,
		ConnectTimeout:   5 * time.Second,
	}
}

// PutMany writes docs to s. Stores implementing BatchPutter commit atomically.
// Other stores are written key by key in sorted order; if a write fails the
// keys already written are restored to their previous contents.
func PutMany(ctx context.Context, s Store, docs map[string][]byte) error {
	if len(docs) == 0 {
		return nil
	}
	if bp, ok := s.(BatchPutter); ok {
		return bp.PutBatch(ctx, docs)
	}

	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type previous struct {
		data  []byte
		found bool
	}
	prev := make(map[string]previous, len(keys))
	for _, k := range keys {
		data, found, err := s.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("failed to read %s before batch write: %w", k, err)
		}
		prev[k] = previous{data: data, found: found}
	}

	for i, k := range keys {
		if err := s.Put(ctx, k, docs[k]); err != nil {
			// Restore what was already written, even if ctx is what failed.
			rctx := context.WithoutCancel(ctx)
			for _, done := range keys[:i] {
				p := prev[done]
				if p.found {
					_ = s.Put(rctx, done, p.data)
				} else {
					_ = s.Delete(rctx, done)
				}
			}
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	return nil
}

// Close closes s if it holds resources
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Ping checks s if it is backed by a remote service
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
