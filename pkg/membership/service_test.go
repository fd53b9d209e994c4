package membership

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/roster/pkg/audit"
	"github.com/platinummonkey/roster/pkg/kvstore"
	"github.com/platinummonkey/roster/pkg/model"
	"github.com/platinummonkey/roster/pkg/repository"
)

const (
	superAdmin = repository.SeedSuperAdminID
	groupAdmin = repository.SeedGroupAdminID
	member     = repository.SeedMemberID
)

var testNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// recordingLogger keeps audit events in memory
type recordingLogger struct {
	mu     sync.Mutex
	events []*audit.AuditEvent
}

func (l *recordingLogger) Log(ctx context.Context, event *audit.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *recordingLogger) Close() error { return nil }

func (l *recordingLogger) ofType(t audit.EventType) []*audit.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*audit.AuditEvent
	for _, e := range l.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	svc   *Service
	store *kvstore.MemoryStore
	audit *recordingLogger
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	store := kvstore.NewMemoryStore()
	rec := &recordingLogger{}
	var mu sync.Mutex
	next := 0
	base := []Option{
		WithAuditLogger(rec),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			next++
			return fmt.Sprintf("id-%d", next)
		}),
	}
	svc := NewService(repository.New(store, repository.DefaultKeyPrefix), Config{VerifyInvariants: true}, append(base, opts...)...)
	return &testEnv{svc: svc, store: store, audit: rec}
}

// raw returns a copy of every stored document
func (e *testEnv) raw(t *testing.T) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, k := range e.store.Keys() {
		data, ok, err := e.store.Get(context.Background(), k)
		require.NoError(t, err)
		require.True(t, ok)
		out[k] = string(data)
	}
	return out
}

func (e *testEnv) requireConsistent(t *testing.T) {
	t.Helper()
	snap, err := e.svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.NoError(t, Verify(snap))
}

func (e *testEnv) createGroup(t *testing.T, actor, name string) *model.Group {
	t.Helper()
	g, err := e.svc.CreateGroup(context.Background(), actor, GroupInput{Name: name})
	require.NoError(t, err)
	return g
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.svc.RegisterUser(context.Background(), "", UserInput{Username: username})
	require.NoError(t, err)
	return u
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(repository.New(kvstore.NewMemoryStore(), ""), Config{})
	assert.Equal(t, DefaultChannelName, svc.cfg.DefaultChannelName)
	assert.NotNil(t, svc.Repository())
	assert.NotEmpty(t, svc.newID())
}

func TestTransactRejectsUnlockedWrites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGroup(t, groupAdmin, "g")
	before := env.raw(t)

	err := env.svc.Transact(ctx, "sneaky", writeUsers, func(tx *Tx) error {
		tx.MarkDirty(repository.CollectionGroups)
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a write lock")
	assert.Equal(t, before, env.raw(t))
}

func TestTransactVerifierBlocksCommit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGroup(t, groupAdmin, "g")
	before := env.raw(t)

	err := env.svc.Transact(ctx, "broken", writeUsers, func(tx *Tx) error {
		u, err := tx.User(member)
		require.NoError(t, err)
		u.Groups = append(u.Groups, "ghost")
		tx.MarkDirty(repository.CollectionUsers)
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvariantViolation))
	assert.Equal(t, before, env.raw(t))
}

func TestTransactNoWriteWhenClean(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.Transact(context.Background(), "noop", writeAll, func(tx *Tx) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, env.store.Keys())
}

func TestConcurrentAddMember(t *testing.T) {
	env := newTestEnv(t, WithIDGenerator(uuid.NewString))
	ctx := context.Background()
	g := env.createGroup(t, groupAdmin, "busy")

	var users []*model.User
	for i := 0; i < 10; i++ {
		u, err := env.svc.RegisterUser(ctx, "", UserInput{Username: fmt.Sprintf("user%d", i)})
		require.NoError(t, err)
		users = append(users, u)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(users))
	for _, u := range users {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- env.svc.AddMember(ctx, groupAdmin, g.ID, id)
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := env.svc.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, len(users)+1)
	env.requireConsistent(t)
}
