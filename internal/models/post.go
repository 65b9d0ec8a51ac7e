package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is the aggregate root for user content. Pictures, videos, comments
// and bookmarks are removed with it through ON DELETE CASCADE; polymorphic
// likes are removed by the repository inside the same transaction.
type Post struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	UID            uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"uid"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	VoiceRecording string     `gorm:"size:500" json:"voice_recording,omitempty"`
	Expiry         *time.Time `gorm:"index" json:"expiry"`
	ProfileID      uint       `gorm:"not null;index" json:"-"`
	Profile        Profile    `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"profile"`
	Pictures       []Picture  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"pictures"`
	Videos         []Video    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"videos"`
	Comments       []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	HitCount       int64      `gorm:"not null;default:0" json:"hit_count"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->;-:migration" json:"liked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the public identifier.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.UID == uuid.Nil {
		p.UID = uuid.New()
	}
	return nil
}

// Picture is an image reference attached to a post.
type Picture struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"-"`
	Image     string    `gorm:"size:500;not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Video is a clip reference attached to a post.
type Video struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"-"`
	Clip      string    `gorm:"size:500;not null" json:"clip"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
