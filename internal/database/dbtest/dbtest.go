// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/studybud/internal/database"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns a migrated database private to t.
func New(t testing.TB) *database.Database {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(database.OpenSQLite(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A shared-cache memory database lives as long as one connection does.
	sqlDB.SetMaxOpenConns(1)

	d := database.NewDatabase(db)
	require.NoError(t, d.Migrate())
	t.Cleanup(func() { _ = d.Close() })
	return d
}
