// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public face of an authenticated identity. UserID is the
// subject carried by access tokens.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Avatar    string    `gorm:"size:500" json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Follow graph, attached by the repository when a projection asks for it.
	Watchers []ProfileSummary `gorm:"-" json:"watchers"`
	Watching []ProfileSummary `gorm:"-" json:"watching"`
}

// ProfileSummary is the compact form used inside follow lists.
type ProfileSummary struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
}

// Watch is one edge of the follow graph: Watcher follows Watched.
type Watch struct {
	WatcherID uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Watcher   Profile   `gorm:"foreignKey:WatcherID;constraint:OnDelete:CASCADE" json:"-"`
	WatchedID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"-"`
	Watched   Profile   `gorm:"foreignKey:WatchedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
