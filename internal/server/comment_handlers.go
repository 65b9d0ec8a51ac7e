package server

import (
	"talkhub/internal/middleware"
	"talkhub/internal/models"
	"talkhub/internal/notifications"
	"talkhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:post_uid/comments
// @Summary List comments of a post
// @Tags comments
// @Produce json
// @Param post_uid path string true "Post UID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{post_uid}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postUID, ok := paramUID(c, "post_uid")
	if !ok {
		return s.respondError(c, models.NewNotFoundError("Post", c.Params("post_uid")))
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postUID, viewerID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:post_uid/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post_uid path string true "Post UID"
// @Param request body service.CreateCommentInput true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{post_uid}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	postUID, ok := paramUID(c, "post_uid")
	if !ok {
		return s.respondError(c, models.NewNotFoundError("Post", c.Params("post_uid")))
	}

	var in service.CreateCommentInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, invalidBody())
	}
	in.UserID = userID
	in.PostUID = postUID

	comment, err := s.commentService.CreateComment(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommentCreated, map[string]any{
		"post_uid": postUID,
		"uid":      comment.UID,
		"author":   comment.Profile.Username,
	})
	return c.JSON(comment)
}

// ToggleCommentLike handles POST /api/comments/:uid/like
// @Summary Like or unlike a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Comment UID"
// @Success 200 {object} ToggleResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{uid}/like [post]
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	liked, comment, err := s.commentService.ToggleLike(c.UserContext(), userID, c.Params("uid"))
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommentLikeToggled, map[string]any{
		"uid":         comment.UID,
		"likes_count": comment.LikesCount,
	})
	if liked {
		s.notifyOwner(c.UserContext(), comment.Profile.UserID, userID, notifications.EventLikeReceived, map[string]any{
			"entity_type": models.EntityComment,
			"uid":         comment.UID,
		})
	}
	return c.JSON(ToggleResponse{
		Status:  true,
		Message: service.ToggleMessage(models.EntityComment, liked),
		Result:  comment,
	})
}

// UpdateComment handles PATCH /api/comments/:uid
// @Summary Edit a comment
// @Description Only the author may edit; a missing comment and a foreign comment look the same
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Comment UID"
// @Param request body service.UpdateCommentInput true "Comment"
// @Success 200 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{uid} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	uid, ok := paramUID(c, "uid")
	if !ok {
		return s.respondError(c, models.NewNotOwnedError("Comment"))
	}

	var in service.UpdateCommentInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, invalidBody())
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), uid, userID, in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommentUpdated, map[string]any{
		"uid":     comment.UID,
		"content": comment.Content,
	})
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:uid
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Comment UID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{uid} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	uid, ok := paramUID(c, "uid")
	if !ok {
		return s.respondError(c, models.NewNotOwnedError("Comment"))
	}

	if err := s.commentService.DeleteComment(c.UserContext(), uid, userID); err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommentDeleted, map[string]any{
		"uid": uid,
	})
	return c.JSON(StatusResponse{Status: true, Message: "Comment deleted"})
}
