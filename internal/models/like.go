package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity types a like can target.
const (
	EntityPost    = "post"
	EntityComment = "comment"
)

// Like records that a user likes one entity. The (UserID, EntityType,
// EntityID) triple is unique and unlikes are hard deletes.
type Like struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_entity,priority:1" json:"user_id"`
	EntityType string    `gorm:"size:32;not null;uniqueIndex:idx_likes_user_entity,priority:2;index:idx_likes_entity,priority:1" json:"entity_type"`
	EntityID   uint      `gorm:"not null;uniqueIndex:idx_likes_user_entity,priority:3;index:idx_likes_entity,priority:2" json:"entity_id"`
	CreatedAt  time.Time `json:"created_at"`
}
