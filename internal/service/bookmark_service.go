package service

import (
	"context"

	"talkhub/internal/models"
	"talkhub/internal/repository"
	"talkhub/internal/validation"

	"github.com/google/uuid"
)

type BookmarkService struct {
	bookmarks repository.BookmarkRepository
	posts     repository.PostRepository
}

type CreateBookmarkInput struct {
	UserID uuid.UUID `json:"-"`
	PostID string    `json:"post_id" validate:"required,uuid"`
}

type DeleteBookmarksInput struct {
	UserID  uuid.UUID `json:"-"`
	PostIDs []string  `json:"post_ids" validate:"required,min=1,dive,required,uuid"`
}

func NewBookmarkService(bookmarks repository.BookmarkRepository, posts repository.PostRepository) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, posts: posts}
}

// ListBookmarks returns the user's bookmarked posts, newest bookmark first.
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]models.Post, error) {
	posts, err := s.posts.ListBookmarked(ctx, userID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// CreateBookmark saves a post for the user. Saving the same post again is a
// no-op that still returns the post.
func (s *BookmarkService) CreateBookmark(ctx context.Context, in CreateBookmarkInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	uid := uuid.MustParse(in.PostID)

	post, err := s.posts.GetByUID(ctx, uid, in.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Post", uid)
		}
		return nil, err
	}

	if _, err := s.bookmarks.Create(ctx, in.UserID, post.ID); err != nil {
		return nil, err
	}
	return post, nil
}

// DeleteBookmarks removes the user's bookmarks on the listed posts and
// reports how many were removed.
func (s *BookmarkService) DeleteBookmarks(ctx context.Context, in DeleteBookmarksInput) (int64, error) {
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	uids := make([]uuid.UUID, 0, len(in.PostIDs))
	for _, ref := range in.PostIDs {
		uids = append(uids, uuid.MustParse(ref))
	}
	return s.bookmarks.DeleteForUser(ctx, in.UserID, uids)
}
