package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"talkhub/internal/models"
	"talkhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_IncrementHits(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "hit_count"=hit_count + $1 WHERE id = $2`)).
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.IncrementHits(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_DeleteOwnedMissingTouchesNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "posts" WHERE uid = \$1 AND profile_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	deleted, err := repo.DeleteOwned(context.Background(), uuid.New(), 5)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_UpdateOwnedScopesToOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	uid := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "content"=$1,"updated_at"=$2 WHERE uid = $3 AND profile_id = $4`)).
		WithArgs("edited", sqlmock.AnyArg(), sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	updated, err := repo.UpdateOwned(context.Background(), uid, 5, map[string]any{"content": "edited"})
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateWithMediaRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hit_count"}).AddRow(1, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "pictures"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	post := &models.Post{Content: "hello", ProfileID: 1}
	err := repo.CreateWithMedia(context.Background(), post, []string{"https://cdn.example.com/a.png"}, nil)
	assert.EqualError(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateWithMediaAndGet(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateProfile(t, db, "ada")
	fan := testutil.CreateProfile(t, db, "grace")
	profiles := NewProfileRepository(db)
	require.NoError(t, profiles.Watch(ctx, fan.ID, author.ID))

	post := &models.Post{Content: "first light", ProfileID: author.ID}
	require.NoError(t, repo.CreateWithMedia(ctx, post,
		[]string{"https://cdn.example.com/1.png", "https://cdn.example.com/2.png"},
		[]string{"https://cdn.example.com/1.mp4"},
	))
	require.NotEqual(t, uuid.Nil, post.UID)

	testutil.CreateComment(t, db, post, fan, "nice")
	require.NoError(t, NewLikeRepository(db).Create(ctx, &models.Like{UserID: fan.UserID, EntityType: models.EntityPost, EntityID: post.ID}))

	got, err := repo.GetByUID(ctx, post.UID, fan.UserID)
	require.NoError(t, err)
	assert.Equal(t, "first light", got.Content)
	assert.Len(t, got.Pictures, 2)
	assert.Len(t, got.Videos, 1)
	assert.Len(t, got.Comments, 1)
	assert.Equal(t, 1, got.LikesCount)
	assert.Equal(t, 1, got.CommentsCount)
	assert.True(t, got.Liked)
	assert.Equal(t, "ada", got.Profile.Username)
	require.Len(t, got.Profile.Watchers, 1)
	assert.Equal(t, "grace", got.Profile.Watchers[0].Username)
	assert.Empty(t, got.Profile.Watching)

	anon, err := repo.GetByUID(ctx, post.UID, uuid.Nil)
	require.NoError(t, err)
	assert.False(t, anon.Liked)
	assert.Equal(t, 1, anon.LikesCount)

	_, err = repo.GetByUID(ctx, uuid.New(), uuid.Nil)
	assert.True(t, IsNotFound(err))
}

func TestPostRepository_ListSearchOrderingAndExpiry(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	ada := testutil.CreateProfile(t, db, "ada")
	bob := testutil.CreateProfile(t, db, "bob")

	older := testutil.CreatePost(t, db, ada, "Compilers are fun")
	newer := testutil.CreatePost(t, db, bob, "Gardening notes")
	past := time.Now().UTC().Add(-time.Hour)
	expired := &models.Post{Content: "gone soon", ProfileID: bob.ID, Expiry: &past}
	require.NoError(t, db.Omit("Profile").Create(expired).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", older.ID).Update("hit_count", 10).Error)

	posts, total, err := repo.List(ctx, PostFilter{Limit: 10}, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, posts, 3)

	posts, total, err = repo.List(ctx, PostFilter{Search: "COMPILERS", Limit: 10}, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, older.UID, posts[0].UID)

	posts, _, err = repo.List(ctx, PostFilter{Search: "bob", Limit: 10}, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, _, err = repo.List(ctx, PostFilter{Search: strings.ToUpper(ada.UserID.String()[:8]), Limit: 10}, uuid.Nil)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, ada.UserID, posts[0].Profile.UserID)

	posts, total, err = repo.List(ctx, PostFilter{ActiveOnly: true, Limit: 10}, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, p := range posts {
		assert.NotEqual(t, expired.UID, p.UID)
	}

	posts, _, err = repo.List(ctx, PostFilter{Ordering: "-hit_count", Limit: 1}, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, older.UID, posts[0].UID)

	posts, total, err = repo.List(ctx, PostFilter{ProfileID: bob.ID, Limit: 1, Offset: 1}, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, posts, 1)
	_ = newer
}

func TestPostFilter_NormalizedOrdering(t *testing.T) {
	assert.Equal(t, "-created_at", PostFilter{}.NormalizedOrdering())
	assert.Equal(t, "-created_at", PostFilter{Ordering: "id; DROP TABLE posts"}.NormalizedOrdering())
	assert.Equal(t, "hit_count", PostFilter{Ordering: "hit_count"}.NormalizedOrdering())
	assert.Equal(t, "-updated_at", PostFilter{Ordering: "-updated_at"}.NormalizedOrdering())
}

func TestPostRepository_DeleteOwned(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	likes := NewLikeRepository(db)
	ctx := context.Background()

	owner := testutil.CreateProfile(t, db, "owner")
	intruder := testutil.CreateProfile(t, db, "intruder")

	post := &models.Post{Content: "mine", ProfileID: owner.ID}
	require.NoError(t, repo.CreateWithMedia(ctx, post, []string{"https://cdn.example.com/p.png"}, nil))
	comment := testutil.CreateComment(t, db, post, intruder, "hi")
	require.NoError(t, likes.Create(ctx, &models.Like{UserID: intruder.UserID, EntityType: models.EntityPost, EntityID: post.ID}))
	require.NoError(t, likes.Create(ctx, &models.Like{UserID: owner.UserID, EntityType: models.EntityComment, EntityID: comment.ID}))

	deleted, err := repo.DeleteOwned(ctx, post.UID, intruder.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	_, err = repo.GetByUID(ctx, post.UID, uuid.Nil)
	require.NoError(t, err)

	deleted, err = repo.DeleteOwned(ctx, post.UID, owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	var n int64
	require.NoError(t, db.Model(&models.Like{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Comment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Picture{}).Count(&n).Error)
	assert.Zero(t, n)

	deleted, err = repo.DeleteOwned(ctx, post.UID, owner.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPostRepository_UpdateOwned(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	owner := testutil.CreateProfile(t, db, "owner")
	intruder := testutil.CreateProfile(t, db, "intruder")
	post := testutil.CreatePost(t, db, owner, "before")

	updated, err := repo.UpdateOwned(ctx, post.UID, intruder.ID, map[string]any{"content": "after"})
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = repo.UpdateOwned(ctx, post.UID, intruder.ID, nil)
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = repo.UpdateOwned(ctx, post.UID, owner.ID, nil)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = repo.UpdateOwned(ctx, post.UID, owner.ID, map[string]any{"content": "after"})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByUID(ctx, post.UID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Content)
	assert.False(t, got.UpdatedAt.Before(post.UpdatedAt))
}

func TestPostRepository_IncrementHitsSQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := testutil.CreatePost(t, db, testutil.CreateProfile(t, db, "ada"), "x")
	require.NoError(t, repo.IncrementHits(ctx, post.ID))
	require.NoError(t, repo.IncrementHits(ctx, post.ID))

	got, err := repo.GetByUID(ctx, post.UID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.HitCount)
}
