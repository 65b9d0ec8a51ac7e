package server

import (
	"log/slog"

	"talkhub/internal/middleware"
	"talkhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize    = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// paramUID parses a route parameter as a public UUID.
func paramUID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	uid, err := uuid.Parse(c.Params(param))
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, false
	}
	return uid, true
}

// viewerID returns the authenticated user or uuid.Nil for anonymous requests.
func viewerID(c *fiber.Ctx) uuid.UUID {
	userID, _ := middleware.UserID(c)
	return userID
}

// clientKey identifies a viewer for hit de-duplication.
func clientKey(c *fiber.Ctx) string {
	return c.IP() + "|" + c.Get(fiber.HeaderUserAgent)
}

// respondError writes err with the status its code maps to. Server faults
// are logged; client errors are not.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

func invalidBody() error {
	return models.NewValidationError("Invalid request body")
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnprocessableEntity:
		return models.CodeValidation
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		return models.CodeUnauthorized
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusMethodNotAllowed:
		return models.CodeMethodNotAllowed
	case fiber.StatusTooManyRequests:
		return models.CodeRateLimited
	default:
		return models.CodeInternal
	}
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
