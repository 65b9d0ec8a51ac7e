package service

import (
	"context"
	"log/slog"
	"time"

	"talkhub/internal/cache"
	"talkhub/internal/observability"
	"talkhub/internal/repository"
)

// HitCounter counts at most one view per client and post within a window.
type HitCounter struct {
	store  *cache.Store
	posts  repository.PostRepository
	window time.Duration
	logger *slog.Logger
}

func NewHitCounter(store *cache.Store, posts repository.PostRepository, window time.Duration, logger *slog.Logger) *HitCounter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HitCounter{store: store, posts: posts, window: window, logger: logger}
}

// Hit records a view and reports whether it was counted. When Redis cannot
// be reached every view counts.
func (h *HitCounter) Hit(ctx context.Context, postID uint, clientKey string) (bool, error) {
	claimed, err := h.store.Claim(ctx, cache.HitKey(postID, clientKey), h.window)
	if err != nil {
		h.logger.WarnContext(ctx, "hit de-duplication unavailable", slog.String("error", err.Error()))
		claimed = true
	}
	if !claimed {
		return false, nil
	}

	if err := h.posts.IncrementHits(ctx, postID); err != nil {
		return false, err
	}
	observability.PostHits.Inc()
	return true, nil
}
