package service

import (
	"context"
	"log/slog"
	"strings"

	"talkhub/internal/models"
	"talkhub/internal/observability"
	"talkhub/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Likeable resolves a public reference to the stored id of one entity type.
// Each route binds exactly one implementation.
type Likeable interface {
	EntityType() string
	Resolve(ctx context.Context, ref string) (uint, error)
}

// PostLikeTarget binds the like engine to posts.
type PostLikeTarget struct {
	Posts repository.PostRepository
}

func (PostLikeTarget) EntityType() string { return models.EntityPost }

func (t PostLikeTarget) Resolve(ctx context.Context, ref string) (uint, error) {
	uid, err := uuid.Parse(ref)
	if err != nil {
		return 0, models.NewNotFoundError("Post", ref)
	}
	return t.Posts.FindIDByUID(ctx, uid)
}

// CommentLikeTarget binds the like engine to comments.
type CommentLikeTarget struct {
	Comments repository.CommentRepository
}

func (CommentLikeTarget) EntityType() string { return models.EntityComment }

func (t CommentLikeTarget) Resolve(ctx context.Context, ref string) (uint, error) {
	uid, err := uuid.Parse(ref)
	if err != nil {
		return 0, models.NewNotFoundError("Comment", ref)
	}
	return t.Comments.FindIDByUID(ctx, uid)
}

// LikeEngine toggles a user's like on any Likeable entity.
type LikeEngine struct {
	likes  repository.LikeRepository
	logger *slog.Logger
}

func NewLikeEngine(likes repository.LikeRepository, logger *slog.Logger) *LikeEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &LikeEngine{likes: likes, logger: logger}
}

// Toggle likes the referenced entity when the user has not liked it yet and
// unlikes it otherwise. It returns the new like, or nil after an unlike.
//
// Two concurrent likes from the same user race on the unique
// (user, type, id) index; the loser sees a conflict and turns its insert
// into a delete, so the pair still nets out like two sequential toggles.
func (e *LikeEngine) Toggle(ctx context.Context, userID uuid.UUID, target Likeable, ref string) (*models.Like, error) {
	if target == nil {
		e.logger.ErrorContext(ctx, "like toggle called without a bound entity type")
		return nil, models.NewConfigurationError("Like target is not configured for this route")
	}
	entityType := target.EntityType()

	span, ctx := observability.NewSpan(ctx, "like.toggle",
		attribute.String("like.entity_type", entityType),
		attribute.String("like.ref", ref),
	)
	defer span.End()

	entityID, err := target.Resolve(ctx, ref)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError(entityLabel(entityType), ref)
		}
		if models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		span.SetError(err)
		return nil, err
	}

	existing, err := e.likes.Find(ctx, userID, entityType, entityID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if existing != nil {
		if _, err := e.likes.Delete(ctx, userID, entityType, entityID); err != nil {
			span.SetError(err)
			return nil, err
		}
		observability.LikeToggles.WithLabelValues(entityType, "unliked").Inc()
		span.AddAttributes(attribute.String("like.outcome", "unliked"))
		return nil, nil
	}

	like := &models.Like{UserID: userID, EntityType: entityType, EntityID: entityID}
	if err := e.likes.Create(ctx, like); err != nil {
		if !models.IsCode(err, models.CodeConflict) {
			span.SetError(err)
			return nil, err
		}

		observability.LikeConflicts.WithLabelValues(entityType).Inc()
		e.logger.InfoContext(ctx, "concurrent like resolved as unlike",
			slog.String("entity_type", entityType),
			slog.Uint64("entity_id", uint64(entityID)),
		)
		if _, err := e.likes.Delete(ctx, userID, entityType, entityID); err != nil {
			span.SetError(err)
			return nil, err
		}
		observability.LikeToggles.WithLabelValues(entityType, "unliked").Inc()
		span.AddAttributes(attribute.String("like.outcome", "unliked"))
		return nil, nil
	}

	observability.LikeToggles.WithLabelValues(entityType, "liked").Inc()
	span.AddAttributes(attribute.String("like.outcome", "liked"))
	return like, nil
}

// ToggleMessage is the human readable outcome of a toggle.
func ToggleMessage(entityType string, liked bool) string {
	if liked {
		return entityLabel(entityType) + " liked"
	}
	return entityLabel(entityType) + " unliked"
}

func entityLabel(entityType string) string {
	if entityType == "" {
		return entityType
	}
	return strings.ToUpper(entityType[:1]) + entityType[1:]
}
