package server

import (
	"errors"
	"log/slog"
	"time"

	"talkhub/internal/middleware"
	"talkhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// FeedWebsocketHandler streams feed events to an authenticated client.
// @Summary Realtime feed
// @Description Upgrades to a websocket that receives post and comment events
// @Tags feed
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws/feed [get]
func (s *Server) FeedWebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(middleware.UserIDLocal).(uuid.UUID)
		if !ok || userID == uuid.Nil {
			closeFeed(conn, websocket.ClosePolicyViolation, "unauthorized")
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			s.logger.Warn("feed connection rejected",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
			code := websocket.CloseTryAgainLater
			if errors.Is(err, notifications.ErrHubClosed) {
				code = websocket.CloseGoingAway
			}
			closeFeed(conn, code, err.Error())
			return
		}

		go client.WritePump()
		client.ReadPump()
	}, websocket.Config{HandshakeTimeout: 10 * time.Second})
}

// closeFeed ends a socket that never joined the hub with a close frame the
// browser surfaces as CloseEvent.code and reason.
func closeFeed(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
