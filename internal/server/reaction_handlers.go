package server

import (
	"sharify/internal/repository"
	"sharify/internal/service"

	"github.com/gofiber/fiber/v2"
)

// toggleRequest names the state the client believes it is leaving. The
// kind-specific field is accepted as an alias of current.
type toggleRequest struct {
	Current      *bool `json:"current"`
	IsLiked      *bool `json:"is_liked"`
	IsBookmarked *bool `json:"is_bookmarked"`
}

func (r toggleRequest) current(kind repository.ReactionKind) (bool, bool) {
	if r.Current != nil {
		return *r.Current, true
	}
	switch kind {
	case repository.ReactionLike:
		if r.IsLiked != nil {
			return *r.IsLiked, true
		}
	case repository.ReactionBookmark:
		if r.IsBookmarked != nil {
			return *r.IsBookmarked, true
		}
	}
	return false, false
}

func (s *Server) reactionStatus(c *fiber.Ctx, kind repository.ReactionKind, field string) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	active, err := s.reactionService.Status(c.UserContext(), kind, currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post_id": postID, field: active})
}

func (s *Server) toggleReaction(c *fiber.Ctx, kind repository.ReactionKind) error {
	ctx := c.UserContext()
	userID := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req toggleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, bodyError())
		}
	}
	current, ok := req.current(kind)
	if !ok {
		// Without a claimed state the toggle flips whatever is stored.
		current, err = s.reactionService.Status(ctx, kind, userID, postID)
		if err != nil {
			return respondError(c, err)
		}
	}

	state, err := s.reactionService.Toggle(ctx, service.ToggleInput{
		UserID: userID, PostID: postID, Kind: kind, Current: current,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// GetLikeStatus handles GET /api/posts/:id/like
// @Summary Whether the caller likes a post
// @Tags reactions
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{post_id=int,is_liked=bool}
// @Router /posts/{id}/like [get]
func (s *Server) GetLikeStatus(c *fiber.Ctx) error {
	return s.reactionStatus(c, repository.ReactionLike, "is_liked")
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Description The body names the state being left. Replaying a toggle converges on the same state.
// @Tags reactions
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{current=bool} false "State before the toggle"
// @Success 200 {object} service.ReactionState
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	return s.toggleReaction(c, repository.ReactionLike)
}

// GetBookmarkStatus handles GET /api/posts/:id/bookmark
// @Summary Whether the caller bookmarked a post
// @Tags reactions
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} object{post_id=int,is_bookmarked=bool}
// @Router /posts/{id}/bookmark [get]
func (s *Server) GetBookmarkStatus(c *fiber.Ctx) error {
	return s.reactionStatus(c, repository.ReactionBookmark, "is_bookmarked")
}

// ToggleBookmark handles POST /api/posts/:id/bookmark
// @Summary Bookmark or un-bookmark a post
// @Tags reactions
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{current=bool} false "State before the toggle"
// @Success 200 {object} service.ReactionState
// @Router /posts/{id}/bookmark [post]
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	return s.toggleReaction(c, repository.ReactionBookmark)
}
