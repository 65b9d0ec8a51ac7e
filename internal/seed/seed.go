// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"talkhub/internal/models"
	"talkhub/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options controls the generated volume.
type Options struct {
	NumProfiles     int
	PostsPerProfile int
	ShouldClean     bool
}

// Result counts what a seeding run created.
type Result struct {
	Profiles  int
	Watches   int
	Posts     int
	Comments  int
	Likes     int
	Bookmarks int
}

func (r *Result) add(o Result) {
	r.Profiles += o.Profiles
	r.Watches += o.Watches
	r.Posts += o.Posts
	r.Comments += o.Comments
	r.Likes += o.Likes
	r.Bookmarks += o.Bookmarks
}

// Seeder writes demo data through the same repositories the API uses.
type Seeder struct {
	db        *gorm.DB
	profiles  repository.ProfileRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	likes     repository.LikeRepository
	bookmarks repository.BookmarkRepository
	faker     *gofakeit.Faker
	logger    *slog.Logger
}

// NewSeeder creates a Seeder bound to db. The same randomSeed yields the
// same generated content.
func NewSeeder(db *gorm.DB, randomSeed int64, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		db:        db,
		profiles:  repository.NewProfileRepository(db),
		posts:     repository.NewPostRepository(db),
		comments:  repository.NewCommentRepository(db),
		likes:     repository.NewLikeRepository(db),
		bookmarks: repository.NewBookmarkRepository(db),
		faker:     gofakeit.New(randomSeed),
		logger:    logger,
	}
}

// Run optionally clears the database, applies fixtures (may be nil) and then
// generates the configured volume on top of them.
func (s *Seeder) Run(ctx context.Context, opts Options, fixtures *Fixtures) (*Result, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear: %w", err)
		}
	}

	total := &Result{}
	if fixtures != nil {
		res, err := s.ApplyFixtures(ctx, fixtures)
		if err != nil {
			return nil, fmt.Errorf("fixtures: %w", err)
		}
		total.add(*res)
	}

	if opts.NumProfiles > 0 {
		res, err := s.SeedVolume(ctx, opts.NumProfiles, opts.PostsPerProfile)
		if err != nil {
			return nil, fmt.Errorf("volume: %w", err)
		}
		total.add(*res)
	}

	s.logger.InfoContext(ctx, "seeding complete",
		slog.Int("profiles", total.Profiles),
		slog.Int("watches", total.Watches),
		slog.Int("posts", total.Posts),
		slog.Int("comments", total.Comments),
		slog.Int("likes", total.Likes),
		slog.Int("bookmarks", total.Bookmarks),
	)
	return total, nil
}

// ClearAll deletes every seeded row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []interface{}{
		&models.Like{},
		&models.Bookmark{},
		&models.Comment{},
		&models.Picture{},
		&models.Video{},
		&models.Post{},
		&models.Watch{},
		&models.Profile{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return err
		}
	}
	s.logger.InfoContext(ctx, "cleared existing data")
	return nil
}

// ApplyFixtures creates the fixture profiles and their content.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (*Result, error) {
	res := &Result{}
	byName := make(map[string]*models.Profile, len(fx.Profiles))

	for _, pf := range fx.Profiles {
		profile := &models.Profile{Username: pf.Username, Bio: pf.Bio, Avatar: pf.Avatar, UserID: uuid.New()}
		if pf.UserID != "" {
			profile.UserID = uuid.MustParse(pf.UserID)
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("profile %q: %w", pf.Username, err)
		}
		byName[pf.Username] = profile
		res.Profiles++
	}

	for _, pf := range fx.Profiles {
		owner := byName[pf.Username]
		for _, name := range pf.Watches {
			if err := s.profiles.Watch(ctx, owner.ID, byName[name].ID); err != nil {
				return nil, err
			}
			res.Watches++
		}

		for _, postFx := range pf.Posts {
			post := &models.Post{Content: postFx.Content, ProfileID: owner.ID}
			if err := s.posts.CreateWithMedia(ctx, post, postFx.Pictures, postFx.Videos); err != nil {
				return nil, fmt.Errorf("post by %q: %w", pf.Username, err)
			}
			res.Posts++

			for _, name := range postFx.LikedBy {
				if err := s.like(ctx, byName[name].UserID, models.EntityPost, post.ID); err != nil {
					return nil, err
				}
				res.Likes++
			}
			for _, name := range postFx.BookmarkedBy {
				if _, err := s.bookmarks.Create(ctx, byName[name].UserID, post.ID); err != nil {
					return nil, err
				}
				res.Bookmarks++
			}
			for _, cf := range postFx.Comments {
				comment := &models.Comment{Content: cf.Content, PostID: post.ID, ProfileID: byName[cf.Author].ID}
				if err := s.comments.Create(ctx, comment); err != nil {
					return nil, err
				}
				res.Comments++
				for _, name := range cf.LikedBy {
					if err := s.like(ctx, byName[name].UserID, models.EntityComment, comment.ID); err != nil {
						return nil, err
					}
					res.Likes++
				}
			}
		}
	}
	return res, nil
}

// like inserts a like, treating an existing one as success.
func (s *Seeder) like(ctx context.Context, userID uuid.UUID, entityType string, entityID uint) error {
	err := s.likes.Create(ctx, &models.Like{UserID: userID, EntityType: entityType, EntityID: entityID})
	if err != nil && !models.IsCode(err, models.CodeConflict) {
		return err
	}
	return nil
}
