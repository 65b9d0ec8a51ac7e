// Package middleware provides the HTTP middleware chain for the API.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"talkhub/internal/models"
	"talkhub/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// requestIDLocal is where fiber's requestid middleware stores the id.
const requestIDLocal = "requestid"

// ContextMiddleware copies the request and trace ids from fiber locals into
// the request context, so slog calls made deep in services carry them. Auth
// adds the user id once a token is verified.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals(requestIDLocal).(string); ok {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
		}
		if tid, ok := c.Locals(TraceIDLocal).(string); ok {
			ctx = context.WithValue(ctx, observability.TraceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger writes one access log line per request. Client errors
// log at warn and server errors at error.
func StructuredLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := responseStatus(c, err)

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}
		if route := c.Route(); route != nil && route.Path != "" {
			attrs = append(attrs, slog.String("route", route.Path))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		level, msg := slog.LevelInfo, "request processed"
		switch {
		case status >= fiber.StatusInternalServerError:
			level, msg = slog.LevelError, "request failed"
		case status >= fiber.StatusBadRequest:
			level, msg = slog.LevelWarn, "request rejected"
		}
		logger.LogAttrs(c.UserContext(), level, msg, attrs...)
		return err
	}
}

// responseStatus is the status the error handler will send for err, or the
// status already written when the chain succeeded.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return models.StatusFor(err)
}
