package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix   = "post:%s"
	HitKeyPrefix    = "hit:%d:%s"
	versionPrefix   = "ver:%s"
	PostListSpace   = "posts:list"
	MinePostsPrefix = "posts:mine:%s"
)

// PostKey is the key of a single cached post projection.
func PostKey(uid uuid.UUID) string {
	return fmt.Sprintf(PostKeyPrefix, uid)
}

// MinePostsSpace is the list namespace for one user's own posts.
func MinePostsSpace(userID uuid.UUID) string {
	return fmt.Sprintf(MinePostsPrefix, userID)
}

// HitKey identifies one client's view of a post. The client key is hashed so
// raw IPs and user agents never land in Redis.
func HitKey(postID uint, client string) string {
	sum := sha256.Sum256([]byte(client))
	return fmt.Sprintf(HitKeyPrefix, postID, hex.EncodeToString(sum[:8]))
}

// Version returns the current generation of a list namespace.
func (s *Store) Version(ctx context.Context, namespace string) int64 {
	if !s.Enabled() {
		return 0
	}
	v, err := s.client.Get(ctx, fmt.Sprintf(versionPrefix, namespace)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "cache version read failed", slog.String("namespace", namespace), slog.String("error", err.Error()))
		}
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// ListKey builds a versioned key for one request shape inside a namespace.
func (s *Store) ListKey(ctx context.Context, namespace, shape string) string {
	return fmt.Sprintf("%s:v%d:%s", namespace, s.Version(ctx, namespace), shape)
}

// InvalidateSpaces bumps the generation of each namespace, orphaning every
// key built from an older generation until its TTL expires.
func (s *Store) InvalidateSpaces(ctx context.Context, namespaces ...string) {
	if !s.Enabled() {
		return
	}
	for _, ns := range namespaces {
		if err := s.client.Incr(ctx, fmt.Sprintf(versionPrefix, ns)).Err(); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", slog.String("namespace", ns), slog.String("error", err.Error()))
		}
	}
}
