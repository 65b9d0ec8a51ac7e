package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"talkhub/internal/config"
	"talkhub/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	db  *gorm.DB
	mr  *miniredis.Miniredis
	srv *Server
	app *fiber.App
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "test",
		DBDriver:            "sqlite",
		JWTSecret:           "test-secret-that-is-at-least-32-chars",
		JWTIssuer:           "talkhub-api",
		JWTAudience:         "talkhub-client",
		AllowedOrigins:      "http://localhost:5173",
		CacheListTTLSeconds: 30,
		CachePostTTLSeconds: 300,
		HitWindowMinutes:    30,
	}
}

// newTestServer wires a full server over sqlite and miniredis. Pass
// withRedis=false to exercise the degraded mode.
func newTestServer(t *testing.T, withRedis bool) *testServer {
	t.Helper()

	ts := &testServer{db: testutil.NewSQLiteDB(t)}

	var rdb *redis.Client
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		ts.mr = mr
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}

	srv, err := NewServerWithDeps(testConfig(), ts.db, rdb, testutil.DiscardLogger())
	require.NoError(t, err)
	ts.srv = srv
	ts.app = srv.NewApp()
	return ts
}

func (ts *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := ts.srv.auth.IssueToken(userID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request and returns the status and raw body.
func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func decodeList(t *testing.T, raw []byte) []any {
	t.Helper()
	var out []any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}
