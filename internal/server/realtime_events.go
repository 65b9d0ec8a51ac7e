package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"talkhub/internal/notifications"

	"github.com/google/uuid"
)

// publishBroadcastEvent sends a feed event to every connected client.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload map[string]any) {
	event := notifications.Event{Type: eventType, Payload: payload}
	s.deliver(ctx, event,
		func() error { return s.notifier.PublishBroadcast(ctx, event) },
		func(message []byte) { s.hub.BroadcastAll(message) },
	)
}

// notifyOwner sends an event to ownerID's connections only. Nothing is sent
// when the owner is the one acting.
func (s *Server) notifyOwner(ctx context.Context, ownerID, actorID uuid.UUID, eventType string, payload map[string]any) {
	if ownerID == uuid.Nil || ownerID == actorID {
		return
	}
	event := notifications.Event{Type: eventType, Payload: payload}
	s.deliver(ctx, event,
		func() error { return s.notifier.PublishUser(ctx, ownerID, event) },
		func(message []byte) { s.hub.Broadcast(ownerID, message) },
	)
}

// deliver routes an event through Redis pub/sub when it is configured, so
// every instance's hub receives it, and straight to the local hub
// otherwise. Failures are logged and dropped.
func (s *Server) deliver(ctx context.Context, event notifications.Event, publish func() error, local func(message []byte)) {
	if s.redis != nil && s.notifier != nil {
		if err := publish(); err != nil {
			s.logger.WarnContext(ctx, "failed to publish feed event",
				slog.String("type", event.Type),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if s.hub == nil {
		return
	}
	message, err := json.Marshal(event)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to marshal feed event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
		return
	}
	local(message)
}
