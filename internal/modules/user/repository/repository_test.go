package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/testutil"
	"anoa.com/akademika/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupsByUniqueKeyReturnNilWhenAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))

	u, err := repo.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.FindByEmail(ctx, "nobody@example.test")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.FindByPhone(ctx, "+620000000")
	require.NoError(t, err)
	assert.Nil(t, u)

	r, err := repo.FindPasswordResetByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFindByIDMissingIsNotFound(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateMaterialisesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewDB(t))
	phone := "+628111111111"

	u := &entity.User{Username: "jdoe", Email: "jdoe@example.test", PhoneNumber: &phone, PasswordHash: "x", Role: entity.RoleStudent, FirstName: "J"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	dupes := []*entity.User{
		{Username: "jdoe", Email: "other@example.test", PasswordHash: "x", Role: entity.RoleStudent, FirstName: "J"},
		{Username: "other", Email: "jdoe@example.test", PasswordHash: "x", Role: entity.RoleStudent, FirstName: "J"},
		{Username: "other2", Email: "other2@example.test", PhoneNumber: &phone, PasswordHash: "x", Role: entity.RoleStudent, FirstName: "J"},
	}
	for _, d := range dupes {
		assert.ErrorIs(t, repo.Create(ctx, d), apperror.ErrConflict)
	}

	// users without a phone number don't collide with each other
	require.NoError(t, repo.Create(ctx, &entity.User{Username: "nophone1", Email: "np1@example.test", PasswordHash: "x", Role: entity.RoleStudent, FirstName: "A"}))
	require.NoError(t, repo.Create(ctx, &entity.User{Username: "nophone2", Email: "np2@example.test", PasswordHash: "x", Role: entity.RoleStudent, FirstName: "B"}))
}

func TestFindByEmailOrPhone(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	phone := "+628123456789"
	u := &entity.User{Username: "sam", Email: "Sam@Example.test", PhoneNumber: &phone, PasswordHash: "x", Role: entity.RoleLecturer, FirstName: "Sam"}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.FindByEmailOrPhone(ctx, "sam@example.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.FindByEmailOrPhone(ctx, " +628123456789 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestUpdatePasswordMissingUser(t *testing.T) {
	repo := NewUserRepository(testutil.NewDB(t))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), uuid.New(), "hash"), apperror.ErrNotFound)
}

func TestRedeemPasswordResetIsSingleUse(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, entity.RoleStudent)

	reset := &entity.PasswordReset{UserID: user.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreatePasswordReset(ctx, reset))

	require.NoError(t, repo.RedeemPasswordReset(ctx, reset.ID, user.ID, "new-hash", time.Now()))
	assert.ErrorIs(t, repo.RedeemPasswordReset(ctx, reset.ID, user.ID, "newer-hash", time.Now()), apperror.ErrTokenUsed)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
}

func TestRedeemPasswordResetRollsBackOnMissingUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, entity.RoleStudent)

	reset := &entity.PasswordReset{UserID: user.ID, TokenHash: "h2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.CreatePasswordReset(ctx, reset))

	err := repo.RedeemPasswordReset(ctx, reset.ID, uuid.New(), "hash", time.Now())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	stored, err := repo.FindPasswordResetByHash(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, stored.Used, "token must stay unused when the password update fails")
}

func TestInvalidateAndPurgePasswordResets(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	user := testutil.CreateUser(t, db, entity.RoleStudent)
	now := time.Now()

	require.NoError(t, repo.CreatePasswordReset(ctx, &entity.PasswordReset{UserID: user.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.CreatePasswordReset(ctx, &entity.PasswordReset{UserID: user.ID, TokenHash: "old", ExpiresAt: now.Add(-48 * time.Hour)}))

	require.NoError(t, repo.InvalidatePasswordResets(ctx, user.ID, now))
	live, err := repo.FindPasswordResetByHash(ctx, "live")
	require.NoError(t, err)
	assert.True(t, live.Used)

	n, err := repo.DeleteExpiredPasswordResets(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFindAllFiltersByRole(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	testutil.CreateUser(t, db, entity.RoleStudent)
	testutil.CreateUser(t, db, entity.RoleStudent)
	testutil.CreateUser(t, db, entity.RoleLecturer)

	users, total, err := repo.FindAll(ctx, UserFilter{Role: entity.RoleStudent, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 1)
}
