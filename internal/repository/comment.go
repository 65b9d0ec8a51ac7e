package repository

import (
	"context"

	"talkhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByUID(ctx context.Context, uid uuid.UUID, currentUserID uuid.UUID) (*models.Comment, error)
	FindIDByUID(ctx context.Context, uid uuid.UUID) (uint, error)
	ListByPost(ctx context.Context, postID uint, currentUserID uuid.UUID) ([]models.Comment, error)
	UpdateOwned(ctx context.Context, uid uuid.UUID, profileID uint, content string) (uuid.UUID, error)
	DeleteOwned(ctx context.Context, uid uuid.UUID, profileID uint) (uuid.UUID, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Profile").Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).First(&comment.Profile, comment.ProfileID).Error
}

func (r *commentRepository) GetByUID(ctx context.Context, uid uuid.UUID, currentUserID uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.withDetails(r.db.WithContext(ctx).Model(&models.Comment{}), currentUserID).
		Where("comments.uid = ?", uid).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindIDByUID(ctx context.Context, uid uuid.UUID) (uint, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Select("id").Where("uid = ?", uid).First(&comment).Error; err != nil {
		return 0, err
	}
	return comment.ID, nil
}

// ListByPost returns a post's comments newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, currentUserID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.withDetails(r.db.WithContext(ctx).Model(&models.Comment{}), currentUserID).
		Where("comments.post_id = ?", postID).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	return comments, err
}

// ownedComment identifies a comment by its author together with the post it
// hangs off. ID is zero when no such comment exists.
type ownedComment struct {
	ID      uint
	PostUID uuid.UUID
}

func findOwnedComment(tx *gorm.DB, uid uuid.UUID, profileID uint) (ownedComment, error) {
	var row ownedComment
	err := tx.Model(&models.Comment{}).
		Select("comments.id, posts.uid AS post_uid").
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("comments.uid = ? AND comments.profile_id = ?", uid, profileID).
		Limit(1).
		Scan(&row).Error
	return row, err
}

// UpdateOwned rewrites a comment's content when it belongs to profileID and
// returns the uid of its post, or uuid.Nil when there is no such comment.
func (r *commentRepository) UpdateOwned(ctx context.Context, uid uuid.UUID, profileID uint, content string) (uuid.UUID, error) {
	var postUID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findOwnedComment(tx, uid, profileID)
		if err != nil || row.ID == 0 {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", row.ID).Update("content", content).Error; err != nil {
			return err
		}
		postUID = row.PostUID
		return nil
	})
	return postUID, err
}

// DeleteOwned removes a comment and its likes when it belongs to profileID.
// The result mirrors UpdateOwned.
func (r *commentRepository) DeleteOwned(ctx context.Context, uid uuid.UUID, profileID uint) (uuid.UUID, error) {
	var postUID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findOwnedComment(tx, uid, profileID)
		if err != nil || row.ID == 0 {
			return err
		}
		if err := tx.Where("entity_type = ? AND entity_id = ?", models.EntityComment, row.ID).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, row.ID).Error; err != nil {
			return err
		}
		postUID = row.PostUID
		return nil
	})
	return postUID, err
}

func (r *commentRepository) withDetails(db *gorm.DB, currentUserID uuid.UUID) *gorm.DB {
	likedExpr := "false AS liked"
	args := []interface{}{models.EntityComment}
	if currentUserID != uuid.Nil {
		likedExpr = "EXISTS(SELECT 1 FROM likes WHERE likes.entity_type = ? AND likes.entity_id = comments.id AND likes.user_id = ?) AS liked"
		args = append(args, models.EntityComment, currentUserID)
	}
	return db.
		Select("comments.*, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.entity_type = ? AND likes.entity_id = comments.id) AS likes_count, "+
			likedExpr, args...).
		Preload("Profile")
}
