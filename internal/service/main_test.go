package service

import (
	"testing"
	"time"

	"talkhub/internal/cache"
	"talkhub/internal/repository"
	"talkhub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// env wires real repositories over an in-memory database and miniredis.
type env struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	store      *cache.Store
	posts      repository.PostRepository
	profiles   repository.ProfileRepository
	likes      repository.LikeRepository
	comments   repository.CommentRepository
	bookmarks  repository.BookmarkRepository
	engine     *LikeEngine
	postSvc    *PostService
	commentSvc *CommentService
	bookSvc    *BookmarkService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewSQLiteDB(t)
	logger := testutil.DiscardLogger()
	store := cache.NewStore(rdb, logger)

	e := &env{
		db:        db,
		mr:        mr,
		store:     store,
		posts:     repository.NewPostRepository(db),
		profiles:  repository.NewProfileRepository(db),
		likes:     repository.NewLikeRepository(db),
		comments:  repository.NewCommentRepository(db),
		bookmarks: repository.NewBookmarkRepository(db),
	}
	e.engine = NewLikeEngine(e.likes, logger)
	e.postSvc = NewPostService(PostServiceDeps{
		Posts:    e.posts,
		Profiles: e.profiles,
		Likes:    e.likes,
		Engine:   e.engine,
		Hits:     NewHitCounter(store, e.posts, 30*time.Minute, logger),
		Cache:    store,
		ListTTL:  time.Minute,
		PostTTL:  time.Minute,
		Logger:   logger,
	})
	e.commentSvc = NewCommentService(e.comments, e.posts, e.profiles, e.engine, store, logger)
	e.bookSvc = NewBookmarkService(e.bookmarks, e.posts)
	return e
}
