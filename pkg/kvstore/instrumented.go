package kvstore

import (
	"context"
	"time"

	"github.com/platinummonkey/roster/pkg/observability"
)

// InstrumentedStore records Prometheus metrics for every call to the inner store
type InstrumentedStore struct {
	inner   Store
	backend string
	metrics *observability.Metrics
}

// NewInstrumentedStore wraps inner, labelling metrics with backend
func NewInstrumentedStore(inner Store, backend string, metrics *observability.Metrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, backend: backend, metrics: metrics}
}

// Get implements Store.Get
func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	data, found, err := s.inner.Get(ctx, key)
	s.metrics.RecordStoreOperation("get", s.backend, err, time.Since(start))
	return data, found, err
}

// Put implements Store.Put
func (s *InstrumentedStore) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := s.inner.Put(ctx, key, data)
	s.metrics.RecordStoreOperation("put", s.backend, err, time.Since(start))
	return err
}

// Delete implements Store.Delete
func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.metrics.RecordStoreOperation("delete", s.backend, err, time.Since(start))
	return err
}

// PutBatch implements BatchPutter.PutBatch
func (s *InstrumentedStore) PutBatch(ctx context.Context, docs map[string][]byte) error {
	start := time.Now()
	err := PutMany(ctx, s.inner, docs)
	s.metrics.RecordStoreOperation("put_batch", s.backend, err, time.Since(start))
	return err
}

// Ping implements Pinger
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.inner)
}

// Close closes the inner store
func (s *InstrumentedStore) Close() error {
	return Close(s.inner)
}
