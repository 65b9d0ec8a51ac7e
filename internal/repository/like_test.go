package repository

import (
	"context"
	"regexp"
	"testing"

	"talkhub/internal/models"
	"talkhub/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_CreateDuplicateIsConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key value"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Like{UserID: uuid.New(), EntityType: models.EntityPost, EntityID: 3})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_DeleteIsScopedToTriple(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3`)).
		WithArgs(sqlmock.AnyArg(), models.EntityComment, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.Delete(context.Background(), userID, models.EntityComment, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeRepository_FindReturnsNilWhenAbsent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	like, err := repo.Find(ctx, userID, models.EntityPost, 1)
	require.NoError(t, err)
	assert.Nil(t, like)

	require.NoError(t, repo.Create(ctx, &models.Like{UserID: userID, EntityType: models.EntityPost, EntityID: 1}))

	like, err = repo.Find(ctx, userID, models.EntityPost, 1)
	require.NoError(t, err)
	require.NotNil(t, like)
	assert.Equal(t, userID, like.UserID)

	other, err := repo.Find(ctx, userID, models.EntityComment, 1)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestLikeRepository_SQLiteDuplicateIsConflict(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	like := models.Like{UserID: uuid.New(), EntityType: models.EntityPost, EntityID: 4}

	first := like
	require.NoError(t, repo.Create(ctx, &first))
	second := like
	err := repo.Create(ctx, &second)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	n, err := repo.Count(ctx, models.EntityPost, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLikeRepository_LikedIDs(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	for _, id := range []uint{1, 3} {
		require.NoError(t, repo.Create(ctx, &models.Like{UserID: userID, EntityType: models.EntityPost, EntityID: id}))
	}
	require.NoError(t, repo.Create(ctx, &models.Like{UserID: uuid.New(), EntityType: models.EntityPost, EntityID: 2}))

	liked, err := repo.LikedIDs(ctx, userID, models.EntityPost, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{1: true, 3: true}, liked)

	anon, err := repo.LikedIDs(ctx, uuid.Nil, models.EntityPost, []uint{1})
	require.NoError(t, err)
	assert.Empty(t, anon)
}
