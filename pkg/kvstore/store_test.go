package kvstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every backend must share
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent key is not an error", func(t *testing.T) {
		data, found, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, data)
	})

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "roster:users", []byte(`[{"id":"u1"}]`)))
		data, found, err := store.Get(ctx, "roster:users")
		require.NoError(t, err)
		assert.True(t, found)
		assert.JSONEq(t, `[{"id":"u1"}]`, string(data))
	})

	t.Run("put replaces", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "roster:groups", []byte(`[1]`)))
		require.NoError(t, store.Put(ctx, "roster:groups", []byte(`[2]`)))
		data, _, err := store.Get(ctx, "roster:groups")
		require.NoError(t, err)
		assert.Equal(t, `[2]`, string(data))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "to-delete", []byte(`{}`)))
		require.NoError(t, store.Delete(ctx, "to-delete"))
		_, found, err := store.Get(ctx, "to-delete")
		require.NoError(t, err)
		assert.False(t, found)
		require.NoError(t, store.Delete(ctx, "to-delete"), "deleting an absent key succeeds")
	})

	t.Run("put many", func(t *testing.T) {
		docs := map[string][]byte{
			"batch:a": []byte(`"a"`),
			"batch:b": []byte(`"b"`),
		}
		require.NoError(t, PutMany(ctx, store, docs))
		for k, v := range docs {
			data, found, err := store.Get(ctx, k)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, string(v), string(data))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	in := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", in))
	in[0] = 'z'

	out, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[0] = 'y'
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	assert.ErrorIs(t, store.Put(ctx, "k", nil), context.Canceled)
	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSystemStore(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	require.NoError(t, err)
	runStoreContract(t, store)
}

func TestFileSystemStore_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSystemStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir+"/roster:users.json", store.path("roster:users"))
	assert.NotContains(t, store.path("a/b"), "a/b")
}

// flakyStore fails Put for one key so PutMany's rollback path can be observed.
// It deliberately does not implement BatchPutter.
type flakyStore struct {
	mem     *MemoryStore
	failKey string
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return f.mem.Get(ctx, key)
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.mem.Put(ctx, key, data)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	return f.mem.Delete(ctx, key)
}

func TestPutMany_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{mem: NewMemoryStore(), failKey: "c"}
	require.NoError(t, store.mem.Put(ctx, "a", []byte("old-a")))

	err := PutMany(ctx, store, map[string][]byte{
		"a": []byte("new-a"),
		"b": []byte("new-b"),
		"c": []byte("new-c"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write c")

	data, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "old-a", string(data), "existing key restored")

	_, found, err = store.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found, "new key removed")
}

func TestPutMany_Empty(t *testing.T) {
	assert.NoError(t, PutMany(context.Background(), NewMemoryStore(), nil))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, DefaultConfig(), nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("cached and instrumented", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CacheEnabled = true
		store, err := Open(ctx, cfg, newTestMetrics())
		require.NoError(t, err)
		cached, ok := store.(*CachedStore)
		require.True(t, ok)
		assert.IsType(t, &InstrumentedStore{}, cached.inner)
	})

	t.Run("filesystem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = BackendFilesystem
		cfg.FilesystemRoot = t.TempDir()
		store, err := Open(ctx, cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &FileSystemStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = BackendSQLite
		cfg.SQLiteDSN = ":memory:"
		store, err := Open(ctx, cfg, nil)
		require.NoError(t, err)
		defer Close(store)
		runStoreContract(t, store)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Type = "etcd"
		_, err := Open(ctx, cfg, nil)
		assert.Error(t, err)
	})
}
