package server

import (
	"talkhub/internal/middleware"
	"talkhub/internal/models"
	"talkhub/internal/notifications"
	"talkhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StatusResponse acknowledges a mutation that returns no entity.
type StatusResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// ToggleResponse is returned by the like toggle routes.
type ToggleResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// ListPosts handles GET /api/posts
// @Summary List posts
// @Description Paginated feed with optional search, ordering and expiry filter
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param search query string false "Matches content, username or user id"
// @Param ordering query string false "created_at, -created_at, updated_at, -updated_at, hit_count, -hit_count"
// @Param active query bool false "Hide expired posts"
// @Success 200 {object} models.PostPage
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)

	result, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		Search:        c.Query("search"),
		Ordering:      c.Query("ordering"),
		ActiveOnly:    c.QueryBool("active", false),
		CurrentUserID: viewerID(c),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// ListMyPosts handles GET /api/posts/mine
// @Summary List my posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} models.PostPage
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/mine [get]
func (s *Server) ListMyPosts(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	page := parsePagination(c, defaultPageSize)

	result, err := s.postService.ListMyPosts(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Creates the post and its pictures and videos atomically
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	var in service.CreatePostInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, invalidBody())
	}
	in.UserID = userID

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventPostCreated, map[string]any{
		"uid":        post.UID,
		"author":     post.Profile.Username,
		"created_at": post.CreatedAt,
	})
	return c.JSON(post)
}

// GetPost handles GET /api/posts/:uid
// @Summary Get a post
// @Description Returns one post and counts a view per client within the hit window
// @Tags posts
// @Produce json
// @Param uid path string true "Post UID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{uid} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	uid, ok := paramUID(c, "uid")
	if !ok {
		return s.respondError(c, models.NewNotFoundError("Post", c.Params("uid")))
	}

	post, err := s.postService.GetPost(c.UserContext(), uid, viewerID(c), clientKey(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PATCH /api/posts/:uid
// @Summary Edit a post
// @Description Partial edit of content, voice recording and expiry. Only the owner may edit; a missing post and a foreign post look the same
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Post UID"
// @Param request body service.UpdatePostInput true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{uid} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	uid, ok := paramUID(c, "uid")
	if !ok {
		return s.respondError(c, models.NewNotOwnedError("Post"))
	}

	var in service.UpdatePostInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, invalidBody())
	}

	post, err := s.postService.UpdatePost(c.UserContext(), uid, userID, in)
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventPostUpdated, map[string]any{
		"uid":        post.UID,
		"updated_at": post.UpdatedAt,
	})
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:uid
// @Summary Delete a post
// @Description Only the owner may delete; a missing post and a foreign post look the same
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Post UID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{uid} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	uid, ok := paramUID(c, "uid")
	if !ok {
		return s.respondError(c, models.NewNotOwnedError("Post"))
	}

	if err := s.postService.DeletePost(c.UserContext(), uid, userID); err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventPostDeleted, map[string]any{
		"uid": uid,
	})
	return c.JSON(StatusResponse{Status: true, Message: "Post deleted"})
}

// TogglePostLike handles POST /api/posts/:uid/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param uid path string true "Post UID"
// @Success 200 {object} ToggleResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{uid}/like [post]
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	liked, post, err := s.postService.ToggleLike(c.UserContext(), userID, c.Params("uid"))
	if err != nil {
		return s.respondError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventPostLikeToggled, map[string]any{
		"uid":         post.UID,
		"likes_count": post.LikesCount,
	})
	if liked {
		s.notifyOwner(c.UserContext(), post.Profile.UserID, userID, notifications.EventLikeReceived, map[string]any{
			"entity_type": models.EntityPost,
			"uid":         post.UID,
		})
	}
	return c.JSON(ToggleResponse{
		Status:  true,
		Message: service.ToggleMessage(models.EntityPost, liked),
		Result:  post,
	})
}
