package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"talkhub/internal/cache"
	"talkhub/internal/models"
	"talkhub/internal/observability"
	"talkhub/internal/repository"
	"talkhub/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxPostContentLen = 50000
	maxMediaPerPost   = 10
)

type PostService struct {
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	likes    repository.LikeRepository
	engine   *LikeEngine
	hits     *HitCounter
	cache    *cache.Store
	listTTL  time.Duration
	postTTL  time.Duration
	logger   *slog.Logger
}

// PostServiceDeps groups the collaborators of PostService.
type PostServiceDeps struct {
	Posts    repository.PostRepository
	Profiles repository.ProfileRepository
	Likes    repository.LikeRepository
	Engine   *LikeEngine
	Hits     *HitCounter
	Cache    *cache.Store
	ListTTL  time.Duration
	PostTTL  time.Duration
	Logger   *slog.Logger
}

type CreatePostInput struct {
	UserID         uuid.UUID  `json:"-"`
	Content        string     `json:"content" validate:"notblank,max=50000"`
	VoiceRecording string     `json:"voice_recording" validate:"omitempty,max=500"`
	Expiry         *time.Time `json:"expiry"`
	Pictures       []string   `json:"pictures" validate:"max=10,dive,notblank,max=500"`
	Videos         []string   `json:"videos" validate:"max=10,dive,notblank,max=500"`
}

// UpdatePostInput is a partial edit. Nil fields keep their stored value;
// media is fixed at creation.
type UpdatePostInput struct {
	Content        *string    `json:"content" validate:"omitnil,notblank,max=50000"`
	VoiceRecording *string    `json:"voice_recording" validate:"omitnil,max=500"`
	Expiry         *time.Time `json:"expiry"`
}

func (in UpdatePostInput) changes() map[string]any {
	changes := make(map[string]any)
	if in.Content != nil {
		changes["content"] = *in.Content
	}
	if in.VoiceRecording != nil {
		changes["voice_recording"] = *in.VoiceRecording
	}
	if in.Expiry != nil {
		changes["expiry"] = in.Expiry.UTC()
	}
	return changes
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	Search        string
	Ordering      string
	ActiveOnly    bool
	CurrentUserID uuid.UUID
}

// cachedPosts keeps the internal ids next to a cached projection; Post.ID
// is not part of the JSON form.
type cachedPosts struct {
	Count int64         `json:"count"`
	IDs   []uint        `json:"ids"`
	Posts []models.Post `json:"posts"`
}

type cachedPost struct {
	ID   uint        `json:"id"`
	Post models.Post `json:"post"`
}

func NewPostService(deps PostServiceDeps) *PostService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewStore(nil, deps.Logger)
	}
	return &PostService{
		posts:    deps.Posts,
		profiles: deps.Profiles,
		likes:    deps.Likes,
		engine:   deps.Engine,
		hits:     deps.Hits,
		cache:    deps.Cache,
		listTTL:  deps.ListTTL,
		postTTL:  deps.PostTTL,
		logger:   deps.Logger,
	}
}

// CreatePost validates the input, then stores the post and its media in one
// transaction.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	profile, err := s.profileFor(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "post.create",
		attribute.Int("post.pictures", len(in.Pictures)),
		attribute.Int("post.videos", len(in.Videos)),
	)
	defer span.End()

	post := &models.Post{
		Content:        in.Content,
		VoiceRecording: in.VoiceRecording,
		ProfileID:      profile.ID,
	}
	if in.Expiry != nil {
		expiry := in.Expiry.UTC()
		post.Expiry = &expiry
	}

	if err := s.posts.CreateWithMedia(ctx, post, in.Pictures, in.Videos); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(fmt.Errorf("create post: %w", err))
	}
	s.cache.InvalidateSpaces(ctx, cache.PostListSpace, cache.MinePostsSpace(in.UserID))

	return s.posts.GetByUID(ctx, post.UID, in.UserID)
}

// ListPosts returns one page of the public feed.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	filter := repository.PostFilter{
		Search:     strings.TrimSpace(in.Search),
		Ordering:   in.Ordering,
		ActiveOnly: in.ActiveOnly,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	return s.cachedPage(ctx, cache.PostListSpace, filter, in.CurrentUserID)
}

// ListMyPosts returns one page of the requester's own posts.
func (s *PostService) ListMyPosts(ctx context.Context, userID uuid.UUID, limit, offset int) (*models.PostPage, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &models.PostPage{Limit: limit, Offset: offset, Results: []models.Post{}}, nil
		}
		return nil, err
	}

	filter := repository.PostFilter{ProfileID: profile.ID, Limit: limit, Offset: offset}
	return s.cachedPage(ctx, cache.MinePostsSpace(userID), filter, userID)
}

// cachedPage caches the viewer independent projection and fills in Liked
// for the current viewer afterwards.
func (s *PostService) cachedPage(ctx context.Context, namespace string, filter repository.PostFilter, viewer uuid.UUID) (*models.PostPage, error) {
	shape := fmt.Sprintf("q=%s|ord=%s|active=%t|l=%d|off=%d",
		strings.ToLower(filter.Search), filter.NormalizedOrdering(), filter.ActiveOnly, filter.Limit, filter.Offset)
	key := s.cache.ListKey(ctx, namespace, shape)

	var entry cachedPosts
	err := s.cache.Aside(ctx, key, &entry, s.listTTL, func() error {
		posts, total, err := s.posts.List(ctx, filter, uuid.Nil)
		if err != nil {
			return err
		}
		entry = cachedPosts{Count: total, IDs: make([]uint, len(posts)), Posts: posts}
		for i := range posts {
			entry.IDs[i] = posts[i].ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range entry.Posts {
		if i < len(entry.IDs) {
			entry.Posts[i].ID = entry.IDs[i]
		}
	}
	if entry.Posts == nil {
		entry.Posts = []models.Post{}
	}
	if err := s.markLiked(ctx, viewer, entry.Posts); err != nil {
		return nil, err
	}

	return &models.PostPage{
		Count:   entry.Count,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
		Results: entry.Posts,
	}, nil
}

// GetPost returns a post by its public id and records a view for clientKey.
func (s *PostService) GetPost(ctx context.Context, uid uuid.UUID, currentUserID uuid.UUID, clientKey string) (*models.Post, error) {
	post, err := s.cachedPost(ctx, uid)
	if err != nil {
		return nil, err
	}

	if s.hits != nil {
		counted, err := s.hits.Hit(ctx, post.ID, clientKey)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record post hit",
				slog.String("post_uid", uid.String()),
				slog.String("error", err.Error()),
			)
		} else if counted {
			post.HitCount++
			s.cache.Delete(ctx, cache.PostKey(uid))
		}
	}

	posts := []models.Post{*post}
	if err := s.markLiked(ctx, currentUserID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (s *PostService) cachedPost(ctx context.Context, uid uuid.UUID) (*models.Post, error) {
	var entry cachedPost
	err := s.cache.Aside(ctx, cache.PostKey(uid), &entry, s.postTTL, func() error {
		post, err := s.posts.GetByUID(ctx, uid, uuid.Nil)
		if err != nil {
			return err
		}
		entry = cachedPost{ID: post.ID, Post: *post}
		return nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Post", uid)
		}
		return nil, err
	}
	entry.Post.ID = entry.ID
	return &entry.Post, nil
}

// DeletePost removes a post owned by userID. A post that does not exist and
// a post owned by someone else produce the same error.
func (s *PostService) DeletePost(ctx context.Context, uid uuid.UUID, userID uuid.UUID) error {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return models.NewNotOwnedError("Post")
		}
		return err
	}

	deleted, err := s.posts.DeleteOwned(ctx, uid, profile.ID)
	if err != nil {
		return models.NewInternalError(fmt.Errorf("delete post: %w", err))
	}
	if !deleted {
		return models.NewNotOwnedError("Post")
	}

	s.invalidatePost(ctx, uid, userID)
	return nil
}

// UpdatePost edits a post owned by userID and returns it as the owner sees
// it. Missing and foreign posts fail the same way as in DeletePost.
func (s *PostService) UpdatePost(ctx context.Context, uid uuid.UUID, userID uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotOwnedError("Post")
		}
		return nil, err
	}

	updated, err := s.posts.UpdateOwned(ctx, uid, profile.ID, in.changes())
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("update post: %w", err))
	}
	if !updated {
		return nil, models.NewNotOwnedError("Post")
	}
	s.invalidatePost(ctx, uid, userID)

	post, err := s.posts.GetByUID(ctx, uid, userID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) invalidatePost(ctx context.Context, uid uuid.UUID, ownerID uuid.UUID) {
	s.cache.InvalidateSpaces(ctx, cache.PostListSpace, cache.MinePostsSpace(ownerID))
	s.cache.Delete(ctx, cache.PostKey(uid))
}

// ToggleLike flips the user's like on a post and returns the refreshed post.
func (s *PostService) ToggleLike(ctx context.Context, userID uuid.UUID, ref string) (bool, *models.Post, error) {
	like, err := s.engine.Toggle(ctx, userID, PostLikeTarget{Posts: s.posts}, ref)
	if err != nil {
		return false, nil, err
	}

	uid, err := uuid.Parse(ref)
	if err != nil {
		return false, nil, models.NewNotFoundError("Post", ref)
	}
	s.cache.Delete(ctx, cache.PostKey(uid))

	post, err := s.posts.GetByUID(ctx, uid, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil, models.NewNotFoundError("Post", ref)
		}
		return false, nil, err
	}
	return like != nil, post, nil
}

func (s *PostService) profileFor(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Profile", userID)
		}
		return nil, err
	}
	return profile, nil
}

func (s *PostService) markLiked(ctx context.Context, viewer uuid.UUID, posts []models.Post) error {
	for i := range posts {
		posts[i].Liked = false
	}
	if viewer == uuid.Nil || len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	liked, err := s.likes.LikedIDs(ctx, viewer, models.EntityPost, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Liked = liked[posts[i].ID]
	}
	return nil
}
