package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "pool.db")), Config())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, ConfigurePool(db, Options{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute}))
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)

	// zero values leave the current limits alone
	require.NoError(t, ConfigurePool(db, Options{}))
	assert.Equal(t, 7, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/x", Options{DatabaseURL: "postgres://u:p@db:5432/x", Host: "ignored"}.DSN())
	assert.Equal(t,
		"host=localhost user=postgres password=pw dbname=akademika port=5432 sslmode=disable",
		Options{Host: "localhost", User: "postgres", Password: "pw", Name: "akademika", Port: "5432"}.DSN(),
	)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)`)))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
	assert.False(t, IsUniqueViolation(nil))
}
