package repository

import (
	"context"

	"talkhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LikeRepository stores polymorphic likes keyed by (user, entity type, entity id).
type LikeRepository interface {
	// Find returns nil without error when the user has not liked the entity.
	Find(ctx context.Context, userID uuid.UUID, entityType string, entityID uint) (*models.Like, error)
	// Create returns a CodeConflict AppError when the triple already exists.
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, userID uuid.UUID, entityType string, entityID uint) (int64, error)
	Count(ctx context.Context, entityType string, entityID uint) (int64, error)
	LikedIDs(ctx context.Context, userID uuid.UUID, entityType string, entityIDs []uint) (map[uint]bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Find(ctx context.Context, userID uuid.UUID, entityType string, entityID uint) (*models.Like, error) {
	var like models.Like
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Limit(1).
		Find(&like)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &like, nil
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	return asConflict(r.db.WithContext(ctx).Create(like).Error, "like already exists")
}

// Delete hard-deletes the like and reports how many rows went away.
func (r *likeRepository) Delete(ctx context.Context, userID uuid.UUID, entityType string, entityID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Delete(&models.Like{})
	return res.RowsAffected, res.Error
}

func (r *likeRepository) Count(ctx context.Context, entityType string, entityID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&n).Error
	return n, err
}

// LikedIDs reports which of entityIDs the user has liked.
func (r *likeRepository) LikedIDs(ctx context.Context, userID uuid.UUID, entityType string, entityIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(entityIDs))
	if userID == uuid.Nil || len(entityIDs) == 0 {
		return liked, nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND entity_type = ? AND entity_id IN ?", userID, entityType, entityIDs).
		Pluck("entity_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
