package repository

import (
	"context"

	"talkhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Watch(ctx context.Context, watcherID, watchedID uint) error
	AttachWatchGraph(ctx context.Context, profiles []*models.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return asConflict(r.db.WithContext(ctx).Create(profile).Error, "profile already exists")
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Watch(ctx context.Context, watcherID, watchedID uint) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Watch{WatcherID: watcherID, WatchedID: watchedID}).Error
}

type watchEdge struct {
	OwnerID  uint
	UserID   uuid.UUID
	Username string
	Avatar   string
}

// AttachWatchGraph fills Watchers and Watching for every profile with two
// queries, regardless of how many profiles are passed.
func (r *profileRepository) AttachWatchGraph(ctx context.Context, profiles []*models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	byID := make(map[uint][]*models.Profile, len(profiles))
	ids := make([]uint, 0, len(profiles))
	for _, p := range profiles {
		p.Watchers = []models.ProfileSummary{}
		p.Watching = []models.ProfileSummary{}
		if _, seen := byID[p.ID]; !seen {
			ids = append(ids, p.ID)
		}
		byID[p.ID] = append(byID[p.ID], p)
	}

	var watchers []watchEdge
	if err := r.db.WithContext(ctx).
		Table("watches").
		Select("watches.watched_id AS owner_id, profiles.user_id, profiles.username, profiles.avatar").
		Joins("JOIN profiles ON profiles.id = watches.watcher_id").
		Where("watches.watched_id IN ?", ids).
		Order("profiles.username").
		Scan(&watchers).Error; err != nil {
		return err
	}

	var watching []watchEdge
	if err := r.db.WithContext(ctx).
		Table("watches").
		Select("watches.watcher_id AS owner_id, profiles.user_id, profiles.username, profiles.avatar").
		Joins("JOIN profiles ON profiles.id = watches.watched_id").
		Where("watches.watcher_id IN ?", ids).
		Order("profiles.username").
		Scan(&watching).Error; err != nil {
		return err
	}

	for _, e := range watchers {
		for _, p := range byID[e.OwnerID] {
			p.Watchers = append(p.Watchers, e.summary())
		}
	}
	for _, e := range watching {
		for _, p := range byID[e.OwnerID] {
			p.Watching = append(p.Watching, e.summary())
		}
	}
	return nil
}

func (e watchEdge) summary() models.ProfileSummary {
	return models.ProfileSummary{UserID: e.UserID, Username: e.Username, Avatar: e.Avatar}
}
