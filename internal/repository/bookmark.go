package repository

import (
	"context"

	"talkhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookmarkRepository defines the interface for bookmark data operations
type BookmarkRepository interface {
	// Create reports false when the bookmark already existed.
	Create(ctx context.Context, userID uuid.UUID, postID uint) (bool, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID, postUIDs []uuid.UUID) (int64, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository creates a new bookmark repository
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Create(ctx context.Context, userID uuid.UUID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Omit("Post").
		Create(&models.Bookmark{UserID: userID, PostID: postID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteForUser removes the user's bookmarks on the given posts. Bookmarks
// owned by other users are never touched.
func (r *bookmarkRepository) DeleteForUser(ctx context.Context, userID uuid.UUID, postUIDs []uuid.UUID) (int64, error) {
	if len(postUIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IN (?)", userID,
			r.db.WithContext(ctx).Model(&models.Post{}).Select("id").Where("uid IN ?", postUIDs),
		).
		Delete(&models.Bookmark{})
	return res.RowsAffected, res.Error
}
