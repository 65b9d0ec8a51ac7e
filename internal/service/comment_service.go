package service

import (
	"context"
	"fmt"
	"log/slog"

	"talkhub/internal/cache"
	"talkhub/internal/models"
	"talkhub/internal/repository"
	"talkhub/internal/validation"

	"github.com/google/uuid"
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	engine   *LikeEngine
	cache    *cache.Store
	logger   *slog.Logger
}

type CreateCommentInput struct {
	UserID  uuid.UUID `json:"-"`
	PostUID uuid.UUID `json:"-"`
	Content string    `json:"content" validate:"notblank,max=10000"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"notblank,max=10000"`
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	profiles repository.ProfileRepository,
	engine *LikeEngine,
	store *cache.Store,
	logger *slog.Logger,
) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = cache.NewStore(nil, logger)
	}
	return &CommentService{
		comments: comments,
		posts:    posts,
		profiles: profiles,
		engine:   engine,
		cache:    store,
		logger:   logger,
	}
}

// ListComments returns the comments of one post, newest first.
func (s *CommentService) ListComments(ctx context.Context, postUID uuid.UUID, currentUserID uuid.UUID) ([]models.Comment, error) {
	postID, err := s.resolvePost(ctx, postUID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID, currentUserID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// CreateComment attaches a comment to an existing post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Profile", in.UserID)
		}
		return nil, err
	}

	postID, err := s.resolvePost(ctx, in.PostUID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:   in.Content,
		PostID:    postID,
		ProfileID: profile.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidatePost(ctx, in.PostUID)
	return comment, nil
}

// UpdateComment rewrites the content of a comment owned by userID. Missing
// and foreign comments share one error, as with posts.
func (s *CommentService) UpdateComment(ctx context.Context, uid uuid.UUID, userID uuid.UUID, in UpdateCommentInput) (*models.Comment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	profileID, err := s.ownerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	postUID, err := s.comments.UpdateOwned(ctx, uid, profileID, in.Content)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("update comment: %w", err))
	}
	if postUID == uuid.Nil {
		return nil, models.NewNotOwnedError("Comment")
	}
	s.invalidatePost(ctx, postUID)

	comment, err := s.comments.GetByUID(ctx, uid, userID)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment owned by userID together with its likes.
func (s *CommentService) DeleteComment(ctx context.Context, uid uuid.UUID, userID uuid.UUID) error {
	profileID, err := s.ownerProfile(ctx, userID)
	if err != nil {
		return err
	}

	postUID, err := s.comments.DeleteOwned(ctx, uid, profileID)
	if err != nil {
		return models.NewInternalError(fmt.Errorf("delete comment: %w", err))
	}
	if postUID == uuid.Nil {
		return models.NewNotOwnedError("Comment")
	}
	s.invalidatePost(ctx, postUID)
	return nil
}

func (s *CommentService) ownerProfile(ctx context.Context, userID uuid.UUID) (uint, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, models.NewNotOwnedError("Comment")
		}
		return 0, err
	}
	return profile.ID, nil
}

// invalidatePost drops cached views that embed a post's comments.
func (s *CommentService) invalidatePost(ctx context.Context, postUID uuid.UUID) {
	s.cache.Delete(ctx, cache.PostKey(postUID))
	s.cache.InvalidateSpaces(ctx, cache.PostListSpace)
}

// ToggleLike flips the user's like on a comment and returns the refreshed comment.
func (s *CommentService) ToggleLike(ctx context.Context, userID uuid.UUID, ref string) (bool, *models.Comment, error) {
	like, err := s.engine.Toggle(ctx, userID, CommentLikeTarget{Comments: s.comments}, ref)
	if err != nil {
		return false, nil, err
	}

	uid, err := uuid.Parse(ref)
	if err != nil {
		return false, nil, models.NewNotFoundError("Comment", ref)
	}
	comment, err := s.comments.GetByUID(ctx, uid, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil, models.NewNotFoundError("Comment", ref)
		}
		return false, nil, err
	}
	return like != nil, comment, nil
}

func (s *CommentService) resolvePost(ctx context.Context, uid uuid.UUID) (uint, error) {
	id, err := s.posts.FindIDByUID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, models.NewNotFoundError("Post", uid)
		}
		return 0, err
	}
	return id, nil
}
