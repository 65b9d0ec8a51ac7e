package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"talkhub/internal/models"
	"talkhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(responseStatus(c, err))
		},
	})
	app.Use(StructuredLogger(logger))
	app.Get("/posts/:uid", func(c *fiber.Ctx) error {
		if c.Params("uid") == "gone" {
			return models.NewNotFoundError("Post", "gone")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return models.NewInternalError(assert.AnError)
	})

	tests := []struct {
		path   string
		status int
		level  string
		msg    string
	}{
		{"/posts/abc", fiber.StatusNoContent, "INFO", "request processed"},
		{"/posts/gone", fiber.StatusNotFound, "WARN", "request rejected"},
		{"/boom", fiber.StatusInternalServerError, "ERROR", "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tt.level, line["level"])
			assert.Equal(t, tt.msg, line["msg"])
			assert.EqualValues(t, tt.status, line["status"])
		})
	}
}

func TestStructuredLogger_RecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(StructuredLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	app.Get("/posts/:uid", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts/abc", nil), -1)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/posts/:uid", line["route"])
	assert.Equal(t, "/posts/abc", line["path"])
}

func TestContextMiddleware_CopiesRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		rid, _ := c.UserContext().Value(observability.RequestIDKey).(string)
		return c.SendString(rid)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "req-42", body.String())
}
