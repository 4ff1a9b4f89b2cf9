package server

import (
	"sharify/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) listInput(c *fiber.Ctx, viewerID uint) service.ListPostsInput {
	page := parsePagination(c, defaultPageSize)
	return service.ListPostsInput{Limit: page.Limit, Offset: page.Offset, ViewerID: viewerID}
}

// GetPosts handles GET /api/posts
// @Summary List posts, newest first
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext(), s.listInput(c, s.optionalUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?q=...
// @Summary Case-insensitive search over title, company, college, role and content
// @Tags posts
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} models.Post
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	posts, err := s.postService.SearchPosts(c.UserContext(), c.Query("q"), s.listInput(c, s.optionalUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get one post with counts and viewer flags
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary List one author's posts
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Post
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListUserPosts(c.UserContext(), authorID, s.listInput(c, s.optionalUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetMyPosts handles GET /api/me/posts
// @Summary The caller's own posts
// @Tags me
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /me/posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	uid := currentUserID(c)
	posts, err := s.postService.ListUserPosts(c.UserContext(), uid, s.listInput(c, uid))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetMyBookmarks handles GET /api/me/bookmarks
// @Summary Posts the caller bookmarked, most recently bookmarked first
// @Tags me
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /me/bookmarks [get]
func (s *Server) GetMyBookmarks(c *fiber.Ctx) error {
	posts, err := s.postService.ListBookmarked(c.UserContext(), s.listInput(c, currentUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetMyLikes handles GET /api/me/likes
// @Summary Posts the caller liked, most recently liked first
// @Tags me
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Router /me/likes [get]
func (s *Server) GetMyLikes(c *fiber.Ctx) error {
	posts, err := s.postService.ListLiked(c.UserContext(), s.listInput(c, currentUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Publish a placement experience
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Param request body service.PostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.PostInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}
	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{UserID: currentUserID(c), PostInput: req})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit one of the caller's posts
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.PostInput true "Post"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.PostInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}
	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID: currentUserID(c), PostID: postID, PostInput: req,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete one of the caller's posts
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{UserID: currentUserID(c), PostID: postID}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
