// Package testutil provides shared test databases and fixtures for backend tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"talkhub/internal/database"
	"talkhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteDB opens a private in-memory database with foreign keys enforced
// and the full schema migrated.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         database.NewGormLogger(DiscardLogger()),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateProfile inserts a profile with a fresh user id.
func CreateProfile(t *testing.T, db *gorm.DB, username string) *models.Profile {
	t.Helper()
	p := &models.Profile{UserID: uuid.New(), Username: username}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreatePost inserts a post owned by profile without media.
func CreatePost(t *testing.T, db *gorm.DB, profile *models.Profile, content string) *models.Post {
	t.Helper()
	p := &models.Post{Content: content, ProfileID: profile.ID}
	require.NoError(t, db.Omit("Profile").Create(p).Error)
	return p
}

// CreateComment inserts a comment by profile on post.
func CreateComment(t *testing.T, db *gorm.DB, post *models.Post, profile *models.Profile, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{Content: content, PostID: post.ID, ProfileID: profile.ID}
	require.NoError(t, db.Omit("Profile").Create(c).Error)
	return c
}
