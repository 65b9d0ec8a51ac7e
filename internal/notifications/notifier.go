// Package notifications delivers realtime feed events over Redis pub/sub and websockets.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// FeedChannel carries events every connected client receives.
	FeedChannel = "feed:events"

	userChannelPrefix = "feed:user:"
)

// Event types published on the feed.
const (
	EventPostCreated        = "post_created"
	EventPostUpdated        = "post_updated"
	EventPostDeleted        = "post_deleted"
	EventPostLikeToggled    = "post_like_toggled"
	EventCommentCreated     = "comment_created"
	EventCommentUpdated     = "comment_updated"
	EventCommentDeleted     = "comment_deleted"
	EventCommentLikeToggled = "comment_like_toggled"

	// EventLikeReceived goes privately to the author of liked content.
	EventLikeReceived = "like_received"
)

// Event is the wire envelope of every realtime message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Notifier provides helpers to publish feed events into Redis channels
type Notifier struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{rdb: rdb, logger: logger}
}

// UserChannel derives the Redis channel name for one user's private events.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

// PublishBroadcast sends an event to every connected client.
func (n *Notifier) PublishBroadcast(ctx context.Context, event Event) error {
	return n.publish(ctx, FeedChannel, event)
}

// PublishUser sends an event to one user's connections only.
func (n *Notifier) PublishUser(ctx context.Context, userID uuid.UUID, event Event) error {
	return n.publish(ctx, UserChannel(userID), event)
}

func (n *Notifier) publish(ctx context.Context, channel string, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// StartSubscriber subscribes to the feed channel and every user channel and
// calls onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, FeedChannel, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe feed channels: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							n.logger.Error("panic in feed subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// parseUserChannel extracts the user id from a per-user channel name.
func parseUserChannel(channel string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
