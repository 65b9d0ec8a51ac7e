package repository

import (
	"context"
	"strings"
	"time"

	"talkhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post list orderings accepted from clients. Anything else falls back to
// newest first.
var postOrderings = map[string]string{
	"created_at":  "posts.created_at ASC, posts.id ASC",
	"-created_at": "posts.created_at DESC, posts.id DESC",
	"updated_at":  "posts.updated_at ASC, posts.id ASC",
	"-updated_at": "posts.updated_at DESC, posts.id DESC",
	"hit_count":   "posts.hit_count ASC, posts.id ASC",
	"-hit_count":  "posts.hit_count DESC, posts.id DESC",
}

const defaultPostOrdering = "-created_at"

// PostFilter narrows a post listing.
type PostFilter struct {
	Search     string
	Ordering   string
	ActiveOnly bool
	ProfileID  uint
	Limit      int
	Offset     int
}

// NormalizedOrdering returns the ordering key that List will actually apply.
func (f PostFilter) NormalizedOrdering() string {
	if _, ok := postOrderings[f.Ordering]; ok {
		return f.Ordering
	}
	return defaultPostOrdering
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreateWithMedia(ctx context.Context, post *models.Post, pictures []string, videos []string) error
	GetByUID(ctx context.Context, uid uuid.UUID, currentUserID uuid.UUID) (*models.Post, error)
	FindIDByUID(ctx context.Context, uid uuid.UUID) (uint, error)
	List(ctx context.Context, filter PostFilter, currentUserID uuid.UUID) ([]models.Post, int64, error)
	ListBookmarked(ctx context.Context, userID uuid.UUID) ([]models.Post, error)
	UpdateOwned(ctx context.Context, uid uuid.UUID, profileID uint, changes map[string]any) (bool, error)
	DeleteOwned(ctx context.Context, uid uuid.UUID, profileID uint) (bool, error)
	IncrementHits(ctx context.Context, postID uint) error
}

type postRepository struct {
	db       *gorm.DB
	profiles ProfileRepository
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, profiles: NewProfileRepository(db)}
}

// CreateWithMedia stores the post and every media row in one transaction.
// A failure on any row leaves nothing behind.
func (r *postRepository) CreateWithMedia(ctx context.Context, post *models.Post, pictures []string, videos []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile", "Pictures", "Videos", "Comments").Create(post).Error; err != nil {
			return err
		}

		post.Pictures = make([]models.Picture, 0, len(pictures))
		for _, image := range pictures {
			post.Pictures = append(post.Pictures, models.Picture{PostID: post.ID, Image: image})
		}
		if len(post.Pictures) > 0 {
			if err := tx.Create(&post.Pictures).Error; err != nil {
				return err
			}
		}

		post.Videos = make([]models.Video, 0, len(videos))
		for _, clip := range videos {
			post.Videos = append(post.Videos, models.Video{PostID: post.ID, Clip: clip})
		}
		if len(post.Videos) > 0 {
			if err := tx.Create(&post.Videos).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postRepository) GetByUID(ctx context.Context, uid uuid.UUID, currentUserID uuid.UUID) (*models.Post, error) {
	var post models.Post
	q := r.withDetails(r.db.WithContext(ctx).Model(&models.Post{}), currentUserID)
	if err := q.Where("posts.uid = ?", uid).First(&post).Error; err != nil {
		return nil, err
	}

	posts := []models.Post{post}
	if err := r.attachGraph(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *postRepository) FindIDByUID(ctx context.Context, uid uuid.UUID) (uint, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Select("id").Where("uid = ?", uid).First(&post).Error; err != nil {
		return 0, err
	}
	return post.ID, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, currentUserID uuid.UUID) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.ProfileID != 0 {
			db = db.Where("posts.profile_id = ?", filter.ProfileID)
		}
		if filter.ActiveOnly {
			db = db.Where("posts.expiry IS NULL OR posts.expiry > ?", time.Now().UTC())
		}
		if term := strings.TrimSpace(filter.Search); term != "" {
			pattern := "%" + strings.ToLower(term) + "%"
			db = db.Joins("JOIN profiles AS author ON author.id = posts.profile_id").
				Where("LOWER(posts.content) LIKE ? OR LOWER(author.username) LIKE ? OR LOWER(CAST(author.user_id AS TEXT)) LIKE ?",
					pattern, pattern, pattern)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	q := r.withDetails(r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope), currentUserID).
		Order(postOrderings[filter.NormalizedOrdering()])
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	if err := r.attachGraph(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListBookmarked returns the posts a user bookmarked, most recent bookmark first.
func (r *postRepository) ListBookmarked(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	var posts []models.Post
	q := r.withDetails(r.db.WithContext(ctx).Model(&models.Post{}), userID).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC, bookmarks.id DESC")
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	if err := r.attachGraph(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateOwned writes changes to a post only when it belongs to profileID and
// reports whether such a post exists. With no changes it is an ownership check.
func (r *postRepository) UpdateOwned(ctx context.Context, uid uuid.UUID, profileID uint, changes map[string]any) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("uid = ? AND profile_id = ?", uid, profileID)
	if len(changes) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	}

	res := q.Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOwned removes a post only when it belongs to profileID. It reports
// false when no such post exists for that owner. Likes on the post and on its
// comments are removed in the same transaction; media, comments and bookmarks
// go through foreign key cascades.
func (r *postRepository) DeleteOwned(ctx context.Context, uid uuid.UUID, profileID uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		res := tx.Select("id").Where("uid = ? AND profile_id = ?", uid, profileID).Limit(1).Find(&post)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Where("entity_type = ? AND entity_id IN (?)", models.EntityComment,
			tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", post.ID),
		).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_type = ? AND entity_id = ?", models.EntityPost, post.ID).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}

		res = tx.Delete(&models.Post{}, post.ID)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *postRepository) IncrementHits(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("hit_count", gorm.Expr("hit_count + ?", 1)).Error
}

// withDetails selects computed counts and the viewer's like flag, and
// preloads author and media.
func (r *postRepository) withDetails(db *gorm.DB, currentUserID uuid.UUID) *gorm.DB {
	likedExpr := "false AS liked"
	args := []interface{}{models.EntityPost}
	if currentUserID != uuid.Nil {
		likedExpr = "EXISTS(SELECT 1 FROM likes WHERE likes.entity_type = ? AND likes.entity_id = posts.id AND likes.user_id = ?) AS liked"
		args = append(args, models.EntityPost, currentUserID)
	}

	return db.
		Select("posts.*, "+
			"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, "+
			"(SELECT COUNT(*) FROM likes WHERE likes.entity_type = ? AND likes.entity_id = posts.id) AS likes_count, "+
			likedExpr, args...).
		Preload("Profile").
		Preload("Pictures", func(db *gorm.DB) *gorm.DB { return db.Order("pictures.id ASC") }).
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("videos.id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.created_at DESC, comments.id DESC") }).
		Preload("Comments.Profile")
}

func (r *postRepository) attachGraph(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	profiles := make([]*models.Profile, 0, len(posts))
	for i := range posts {
		profiles = append(profiles, &posts[i].Profile)
	}
	return r.profiles.AttachWatchGraph(ctx, profiles)
}
