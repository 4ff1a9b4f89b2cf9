package repository

import (
	"testing"
	"time"

	"sharify/internal/database"
	"sharify/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a migrated in-memory sqlite database pinned to a single
// connection so every query sees the same memory.
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

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, id uint, name string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Name: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(u).Error)
	return u
}

// createPost inserts a post whose created_at is offset from a fixed base so
// ordering assertions are deterministic.
func createPost(t *testing.T, db *gorm.DB, authorID uint, title, company string, minute int) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:     title,
		Content:   "Three rounds, one system design.",
		Company:   company,
		Role:      "SDE Intern",
		Tags:      []string{"intern"},
		AuthorID:  authorID,
		CreatedAt: time.Date(2026, 1, 1, 12, minute, 0, 0, time.UTC),
	}
	require.NoError(t, db.Omit("Author").Create(p).Error)
	return p
}
