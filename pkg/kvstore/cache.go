package kvstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platinummonkey/roster/pkg/observability"
)

// CachedStore is a read-through LRU cache in front of another store. Writes go
// to the inner store first and update the cache only on success. Absent keys
// are not cached.
//
// The cache assumes this process is the only writer; with several writers
// against one backend it serves stale documents.
type CachedStore struct {
	inner   Store
	cache   *lru.Cache[string, []byte]
	metrics *observability.Metrics
}

// NewCachedStore wraps inner with an LRU holding up to size documents
func NewCachedStore(inner Store, size int, metrics *observability.Metrics) (*CachedStore, error) {
	if size <= 0 {
		size = 64
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache, metrics: metrics}, nil
}

// Get implements Store.Get
func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if data, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.CacheHitsTotal.Inc()
		}
		return cloneBytes(data), true, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.Inc()
	}

	data, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return data, found, err
	}
	s.cache.Add(key, cloneBytes(data))
	return data, true, nil
}

// Put implements Store.Put
func (s *CachedStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.inner.Put(ctx, key, data); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, cloneBytes(data))
	return nil
}

// Delete implements Store.Delete
func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.cache.Remove(key)
	return s.inner.Delete(ctx, key)
}

// PutBatch implements BatchPutter.PutBatch using the inner store's batch
// semantics
func (s *CachedStore) PutBatch(ctx context.Context, docs map[string][]byte) error {
	if err := PutMany(ctx, s.inner, docs); err != nil {
		for k := range docs {
			s.cache.Remove(k)
		}
		return err
	}
	for k, v := range docs {
		s.cache.Add(k, cloneBytes(v))
	}
	return nil
}

// Purge drops every cached document
func (s *CachedStore) Purge() {
	s.cache.Purge()
}

// Ping implements Pinger
func (s *CachedStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.inner)
}

// Close closes the inner store
func (s *CachedStore) Close() error {
	return Close(s.inner)
}
