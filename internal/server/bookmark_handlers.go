package server

import (
	"talkhub/internal/middleware"
	"talkhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListBookmarks handles GET /api/bookmarks
// @Summary List bookmarked posts
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Router /bookmarks [get]
func (s *Server) ListBookmarks(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	posts, err := s.bookmarkService.ListBookmarks(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// CreateBookmark handles POST /api/bookmarks
// @Summary Bookmark a post
// @Description Bookmarking the same post twice is a no-op
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateBookmarkInput true "Post reference"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /bookmarks [post]
func (s *Server) CreateBookmark(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	var in service.CreateBookmarkInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, invalidBody())
	}
	in.UserID = userID

	post, err := s.bookmarkService.CreateBookmark(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeleteBookmarks handles DELETE /api/bookmarks
// @Summary Remove bookmarks
// @Description Removes the requester's bookmarks on the listed posts
// @Tags bookmarks
// @Accept json
// @Security BearerAuth
// @Param request body service.DeleteBookmarksInput true "Post references"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Router /bookmarks [delete]
func (s *Server) DeleteBookmarks(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)

	var in service.DeleteBookmarksInput
	if err := c.BodyParser(&in); err != nil {
		return s.respondError(c, invalidBody())
	}
	in.UserID = userID

	if _, err := s.bookmarkService.DeleteBookmarks(c.UserContext(), in); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
