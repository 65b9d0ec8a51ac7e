package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"talkhub/internal/models"
	"talkhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const sampleFixtures = `
profiles:
  - username: ada
    user_id: 2b0a6c52-5a7e-4b65-9c1e-6f4c3f0f7a11
    watches: [bob]
    posts:
      - content: hello
        pictures: [https://example.com/a.png, https://example.com/b.png]
        liked_by: [bob]
        bookmarked_by: [bob, ada]
        comments:
          - author: bob
            content: hi ada
            liked_by: [ada]
  - username: bob
    posts:
      - content: clip
        videos: [https://example.com/v.mp4]
`

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestParseFixtures_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bad yaml", "profiles: [", "parse fixtures"},
		{"missing username", "profiles:\n  - bio: x\n", "without username"},
		{"duplicate", "profiles:\n  - username: a\n  - username: a\n", "duplicate"},
		{"bad user id", "profiles:\n  - username: a\n    user_id: nope\n", "invalid user_id"},
		{"unknown watch", "profiles:\n  - username: a\n    watches: [zed]\n", `unknown profile "zed"`},
		{"unknown liker", "profiles:\n  - username: a\n    posts:\n      - content: x\n        liked_by: [zed]\n", "liked_by"},
		{"unknown author", "profiles:\n  - username: a\n    posts:\n      - content: x\n        comments:\n          - author: zed\n            content: y\n", "comment author"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixtures), 0o600))

	fx, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, fx.Profiles, 2)
	assert.Equal(t, []string{"bob"}, fx.Profiles[0].Watches)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestApplyFixtures(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx, err := ParseFixtures([]byte(sampleFixtures))
	require.NoError(t, err)

	res, err := NewSeeder(db, 1, testutil.DiscardLogger()).ApplyFixtures(context.Background(), fx)
	require.NoError(t, err)

	assert.Equal(t, Result{Profiles: 2, Watches: 1, Posts: 2, Comments: 1, Likes: 2, Bookmarks: 2}, *res)
	assert.EqualValues(t, 2, count(t, db, &models.Profile{}))
	assert.EqualValues(t, 2, count(t, db, &models.Picture{}))
	assert.EqualValues(t, 1, count(t, db, &models.Video{}))
	assert.EqualValues(t, 2, count(t, db, &models.Bookmark{}))

	var ada models.Profile
	require.NoError(t, db.Where("username = ?", "ada").First(&ada).Error)
	assert.Equal(t, "2b0a6c52-5a7e-4b65-9c1e-6f4c3f0f7a11", ada.UserID.String())

	var commentLikes int64
	require.NoError(t, db.Model(&models.Like{}).Where("entity_type = ?", models.EntityComment).Count(&commentLikes).Error)
	assert.EqualValues(t, 1, commentLikes)
}

func TestRun_VolumeAndClean(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	seeder := NewSeeder(db, 42, testutil.DiscardLogger())

	res, err := seeder.Run(ctx, Options{NumProfiles: 6, PostsPerProfile: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Profiles)
	assert.Equal(t, 12, res.Posts)
	assert.EqualValues(t, 12, count(t, db, &models.Post{}))
	assert.EqualValues(t, res.Comments, count(t, db, &models.Comment{}))
	assert.EqualValues(t, res.Likes, count(t, db, &models.Like{}))
	assert.EqualValues(t, res.Bookmarks, count(t, db, &models.Bookmark{}))
	assert.EqualValues(t, res.Watches, count(t, db, &models.Watch{}))

	fx, err := ParseFixtures([]byte(sampleFixtures))
	require.NoError(t, err)
	res, err = seeder.Run(ctx, Options{ShouldClean: true}, fx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Profiles)
	assert.EqualValues(t, 2, count(t, db, &models.Profile{}))
	assert.EqualValues(t, 2, count(t, db, &models.Post{}))
}
