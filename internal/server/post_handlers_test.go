package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"talkhub/internal/models"
	"talkhub/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostThenToggleLike(t *testing.T) {
	ts := newTestServer(t, true)
	author := testutil.CreateProfile(t, ts.db, "ada")
	token := ts.token(t, author.UserID)

	status, raw := ts.do(t, http.MethodPost, "/api/posts", map[string]any{
		"content":  "hello",
		"pictures": []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
	}, token)
	require.Equal(t, http.StatusOK, status, string(raw))

	post := decodeMap(t, raw)
	assert.Equal(t, "hello", post["content"])
	assert.Len(t, post["pictures"], 2)
	assert.Empty(t, post["videos"])
	assert.Equal(t, "ada", post["profile"].(map[string]any)["username"])
	uid := post["uid"].(string)

	status, raw = ts.do(t, http.MethodPost, "/api/posts/"+uid+"/like", nil, token)
	require.Equal(t, http.StatusOK, status, string(raw))
	body := decodeMap(t, raw)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "Post liked", body["message"])
	result := body["result"].(map[string]any)
	assert.EqualValues(t, 1, result["likes_count"])
	assert.Equal(t, true, result["liked"])

	status, raw = ts.do(t, http.MethodPost, "/api/posts/"+uid+"/like", nil, token)
	require.Equal(t, http.StatusOK, status, string(raw))
	body = decodeMap(t, raw)
	assert.Equal(t, "Post unliked", body["message"])
	result = body["result"].(map[string]any)
	assert.EqualValues(t, 0, result["likes_count"])
	assert.Equal(t, false, result["liked"])

	var likes int64
	require.NoError(t, ts.db.Model(&models.Like{}).Count(&likes).Error)
	assert.Zero(t, likes)
}

func TestCreatePost_ValidationCollectsFields(t *testing.T) {
	ts := newTestServer(t, true)
	author := testutil.CreateProfile(t, ts.db, "ada")

	status, raw := ts.do(t, http.MethodPost, "/api/posts", map[string]any{
		"content":  "   ",
		"pictures": []string{" "},
	}, ts.token(t, author.UserID))
	require.Equal(t, http.StatusBadRequest, status, string(raw))

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, models.CodeValidation, resp.Code)
	assert.Contains(t, resp.Fields, "content")
	assert.Contains(t, resp.Fields, "pictures[0]")

	var posts int64
	require.NoError(t, ts.db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
}

func TestCreatePost_MalformedBody(t *testing.T) {
	ts := newTestServer(t, true)
	author := testutil.CreateProfile(t, ts.db, "ada")

	status, raw := ts.do(t, http.MethodPost, "/api/posts", "not-an-object", ts.token(t, author.UserID))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decodeMap(t, raw)["code"])
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	ts := newTestServer(t, true)

	status, raw := ts.do(t, http.MethodPost, "/api/posts", map[string]any{"content": "hello"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, decodeMap(t, raw)["code"])

	status, _ = ts.do(t, http.MethodPost, "/api/posts", map[string]any{"content": "hello"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreatePost_WithoutProfile(t *testing.T) {
	ts := newTestServer(t, true)

	status, raw := ts.do(t, http.MethodPost, "/api/posts", map[string]any{"content": "hello"}, ts.token(t, uuid.New()))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decodeMap(t, raw)["code"])
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	ts := newTestServer(t, true)
	owner := testutil.CreateProfile(t, ts.db, "owner")
	other := testutil.CreateProfile(t, ts.db, "other")
	post := testutil.CreatePost(t, ts.db, owner, "mine")
	path := "/api/posts/" + post.UID.String()

	status, raw := ts.do(t, http.MethodDelete, path, nil, ts.token(t, other.UserID))
	require.Equal(t, http.StatusNotFound, status)
	body := decodeMap(t, raw)
	assert.Equal(t, models.CodeNotOwned, body["code"])
	assert.Equal(t, "Post does not exist or you do not own this post", body["error"])

	status, raw = ts.do(t, http.MethodDelete, path, nil, ts.token(t, owner.UserID))
	require.Equal(t, http.StatusOK, status, string(raw))
	body = decodeMap(t, raw)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "Post deleted", body["message"])

	status, raw = ts.do(t, http.MethodDelete, path, nil, ts.token(t, owner.UserID))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotOwned, decodeMap(t, raw)["code"])

	status, raw = ts.do(t, http.MethodDelete, "/api/posts/not-a-uid", nil, ts.token(t, owner.UserID))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotOwned, decodeMap(t, raw)["code"])
}

func TestUpdatePost(t *testing.T) {
	ts := newTestServer(t, true)
	owner := testutil.CreateProfile(t, ts.db, "owner")
	other := testutil.CreateProfile(t, ts.db, "other")
	post := testutil.CreatePost(t, ts.db, owner, "mine")
	path := "/api/posts/" + post.UID.String()

	status, raw := ts.do(t, http.MethodPatch, path, map[string]any{"content": "taken over"}, ts.token(t, other.UserID))
	require.Equal(t, http.StatusNotFound, status, string(raw))
	body := decodeMap(t, raw)
	assert.Equal(t, models.CodeNotOwned, body["code"])
	assert.Equal(t, "Post does not exist or you do not own this post", body["error"])

	var stored models.Post
	require.NoError(t, ts.db.First(&stored, post.ID).Error)
	assert.Equal(t, "mine", stored.Content)

	status, raw = ts.do(t, http.MethodPatch, path, map[string]any{"content": "  "}, ts.token(t, owner.UserID))
	require.Equal(t, http.StatusBadRequest, status, string(raw))
	body = decodeMap(t, raw)
	assert.Equal(t, models.CodeValidation, body["code"])
	assert.Contains(t, body["fields"], "content")

	status, raw = ts.do(t, http.MethodPatch, path, map[string]any{"content": "edited"}, ts.token(t, owner.UserID))
	require.Equal(t, http.StatusOK, status, string(raw))
	body = decodeMap(t, raw)
	assert.Equal(t, "edited", body["content"])
	assert.Equal(t, post.UID.String(), body["uid"])

	status, raw = ts.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", decodeMap(t, raw)["content"])

	status, raw = ts.do(t, http.MethodPatch, "/api/posts/"+uuid.NewString(), map[string]any{"content": "x"}, ts.token(t, owner.UserID))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotOwned, decodeMap(t, raw)["code"])

	status, _ = ts.do(t, http.MethodPatch, path, map[string]any{"content": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGetPost(t *testing.T) {
	ts := newTestServer(t, true)
	owner := testutil.CreateProfile(t, ts.db, "owner")
	post := testutil.CreatePost(t, ts.db, owner, "hello")

	status, raw := ts.do(t, http.MethodGet, "/api/posts/"+post.UID.String(), nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	body := decodeMap(t, raw)
	assert.Equal(t, "hello", body["content"])
	assert.EqualValues(t, 1, body["hit_count"])
	assert.Equal(t, false, body["liked"])

	// Same client inside the window is not counted again.
	status, raw = ts.do(t, http.MethodGet, "/api/posts/"+post.UID.String(), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, decodeMap(t, raw)["hit_count"])

	status, raw = ts.do(t, http.MethodGet, "/api/posts/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decodeMap(t, raw)["code"])

	status, raw = ts.do(t, http.MethodGet, "/api/posts/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decodeMap(t, raw)["code"])
}

func TestListPosts(t *testing.T) {
	ts := newTestServer(t, true)
	ada := testutil.CreateProfile(t, ts.db, "ada")
	bob := testutil.CreateProfile(t, ts.db, "bob")
	testutil.CreatePost(t, ts.db, ada, "golang tips")
	testutil.CreatePost(t, ts.db, bob, "weekend photos")

	status, raw := ts.do(t, http.MethodGet, "/api/posts?limit=500", nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	page := decodeMap(t, raw)
	assert.EqualValues(t, 2, page["count"])
	assert.EqualValues(t, maxPaginationLimit, page["limit"])
	assert.Len(t, page["results"], 2)

	status, raw = ts.do(t, http.MethodGet, "/api/posts?search=GOLANG", nil, "")
	require.Equal(t, http.StatusOK, status)
	page = decodeMap(t, raw)
	assert.EqualValues(t, 1, page["count"])

	status, raw = ts.do(t, http.MethodGet, "/api/posts/mine", nil, ts.token(t, bob.UserID))
	require.Equal(t, http.StatusOK, status, string(raw))
	page = decodeMap(t, raw)
	require.Len(t, page["results"], 1)
	assert.Equal(t, "weekend photos", page["results"].([]any)[0].(map[string]any)["content"])

	status, _ = ts.do(t, http.MethodGet, "/api/posts/mine", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListPosts_LikedFollowsViewer(t *testing.T) {
	ts := newTestServer(t, true)
	ada := testutil.CreateProfile(t, ts.db, "ada")
	bob := testutil.CreateProfile(t, ts.db, "bob")
	post := testutil.CreatePost(t, ts.db, ada, "hello")

	status, _ := ts.do(t, http.MethodPost, "/api/posts/"+post.UID.String()+"/like", nil, ts.token(t, bob.UserID))
	require.Equal(t, http.StatusOK, status)

	likedBy := func(token string) any {
		status, raw := ts.do(t, http.MethodGet, "/api/posts", nil, token)
		require.Equal(t, http.StatusOK, status)
		results := decodeMap(t, raw)["results"].([]any)
		require.Len(t, results, 1)
		return results[0].(map[string]any)["liked"]
	}

	assert.Equal(t, true, likedBy(ts.token(t, bob.UserID)))
	assert.Equal(t, false, likedBy(ts.token(t, ada.UserID)))
	assert.Equal(t, false, likedBy(""))
}

func TestTogglePostLike_UnknownPost(t *testing.T) {
	ts := newTestServer(t, true)
	user := testutil.CreateProfile(t, ts.db, "ada")

	status, raw := ts.do(t, http.MethodPost, "/api/posts/"+uuid.NewString()+"/like", nil, ts.token(t, user.UserID))
	assert.Equal(t, http.StatusNotFound, status)
	body := decodeMap(t, raw)
	assert.Equal(t, models.CodeNotFound, body["code"])
	assert.Equal(t, "Post does not exist", body["error"])
}
