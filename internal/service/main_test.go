package service

import (
	"context"
	"sync"
	"testing"

	"sharify/internal/database"
	"sharify/internal/models"
	"sharify/internal/querykeys"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// recorder is a ChangePublisher that remembers what it was told.
type recorder struct {
	mu      sync.Mutex
	changes []querykeys.Change
}

func (r *recorder) Publish(_ context.Context, changes ...querykeys.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changes...)
}

func (r *recorder) all() []querykeys.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]querykeys.Change(nil), r.changes...)
}

func seedUser(t *testing.T, db *gorm.DB, id uint, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.User{ID: id, Name: name, Email: name + "@example.com"}).Error)
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}
