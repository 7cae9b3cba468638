package session

import (
	"context"
	"testing"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(t *testing.T, store Store) (*Manager, *clock) {
	t.Helper()
	c := &clock{t: time.Now()}
	m := NewManager(store, Options{Secret: "test-secret", IdleTTL: time.Hour, MaxAge: 24 * time.Hour})
	m.now = c.now
	if ms, ok := store.(*MemoryStore); ok {
		ms.now = c.now
	}
	return m, c
}

func newUser(role entity.Role) *entity.User {
	return &entity.User{ID: uuid.New(), Username: "u" + uuid.NewString()[:6], Role: role}
}

func TestManagerIssueAndResolve(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, NewMemoryStore())
	user := newUser(entity.RoleLecturer)

	token, expiresAt, err := m.Issue(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	s, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, s.UserID)
	assert.Equal(t, entity.RoleLecturer, s.Role)
}

func TestManagerRejectsTamperedToken(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, NewMemoryStore())
	token, _, err := m.Issue(ctx, newUser(entity.RoleStudent))
	require.NoError(t, err)

	other := NewManager(NewMemoryStore(), Options{Secret: "other-secret"})
	_, err = other.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = m.Resolve(ctx, token+"x")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = m.Resolve(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestManagerIdleExpiryAndSliding(t *testing.T) {
	ctx := context.Background()
	m, c := newTestManager(t, NewMemoryStore())
	token, _, err := m.Issue(ctx, newUser(entity.RoleStudent))
	require.NoError(t, err)

	c.t = c.t.Add(50 * time.Minute)
	_, err = m.Resolve(ctx, token)
	require.NoError(t, err, "activity within the idle window keeps the session")

	c.t = c.t.Add(50 * time.Minute)
	_, err = m.Resolve(ctx, token)
	require.NoError(t, err, "the window slides from the last resolve")

	c.t = c.t.Add(61 * time.Minute)
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestManagerRevoke(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, NewMemoryStore())
	user := newUser(entity.RoleStudent)

	first, _, err := m.Issue(ctx, user)
	require.NoError(t, err)
	second, _, err := m.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, first))
	_, err = m.Resolve(ctx, first)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = m.Resolve(ctx, second)
	require.NoError(t, err)

	require.NoError(t, m.RevokeUser(ctx, user.ID))
	_, err = m.Resolve(ctx, second)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestMemoryStoreSweepExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m, c := newTestManager(t, store)

	_, _, err := m.Issue(ctx, newUser(entity.RoleStudent))
	require.NoError(t, err)
	_, _, err = m.Issue(ctx, newUser(entity.RoleAdmin))
	require.NoError(t, err)

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	c.t = c.t.Add(2 * time.Hour)
	removed, err = m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	m := NewManager(store, Options{Secret: "test-secret", IdleTTL: time.Hour, MaxAge: 24 * time.Hour})
	user := newUser(entity.RoleAdmin)

	token, _, err := m.Issue(ctx, user)
	require.NoError(t, err)

	s, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, s.Role)
	assert.True(t, mr.TTL(sessionKey(s.ID)) > 0)

	mr.FastForward(2 * time.Hour)
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestRedisStoreRevokeUser(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := NewManager(NewRedisStore(client), Options{Secret: "test-secret"})
	user := newUser(entity.RoleStudent)

	a, _, err := m.Issue(ctx, user)
	require.NoError(t, err)
	b, _, err := m.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, m.RevokeUser(ctx, user.ID))
	for _, tok := range []string{a, b} {
		_, err := m.Resolve(ctx, tok)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	}
	assert.False(t, mr.Exists(userIndexKey(user.ID)))
}
