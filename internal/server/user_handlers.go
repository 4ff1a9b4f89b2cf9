package server

import (
	"context"
	"time"

	"sharify/internal/models"
	"sharify/internal/service"

	"github.com/gofiber/fiber/v2"
)

// EnsureUser handles POST /api/users/ensure
// @Summary Create the public user record for the signed-in account if missing
// @Description Idempotent. Never overwrites an existing record.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Param request body object{display_name=string} false "Best-effort display name"
// @Success 200 {object} object{user=models.User,created=bool}
// @Router /users/ensure [post]
func (s *Server) EnsureUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentUserID(c)

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, bodyError())
		}
	}

	identity, err := s.authService.Identity(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	name := req.DisplayName
	if name == "" {
		name = identity.DisplayName
	}

	user, created, err := s.profileService.EnsureUser(ctx, service.EnsureUserInput{
		UserID:      userID,
		Email:       identity.Email,
		DisplayName: name,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user, "created": created})
}

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile of a user
// @Description Falls back to the bare user record when no profile exists.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.PublicProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.profileService.PublicProfile(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/profile
// @Summary The caller's own profile
// @Tags profile
// @Security BearerAuth
// @Success 200 {object} models.PublicProfile
// @Router /profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/profile
// @Summary Create or update the caller's profile
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.PublicProfile
// @Failure 400 {object} models.ErrorResponse
// @Router /profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}
	req.UserID = currentUserID(c)

	profile, err := s.profileService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UploadAvatar handles POST /api/profile/avatar
// @Summary Upload a profile picture
// @Description Accepts JPEG, PNG, GIF or WebP. The image is cropped square, resized and stored as WebP.
// @Tags profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Param avatar formData file true "Image file"
// @Success 200 {object} models.PublicProfile
// @Failure 400 {object} models.ErrorResponse
// @Router /profile/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return respondError(c, models.NewValidationError("avatar file is required"))
	}
	content, err := readFormFile(fh, s.config.MaxUploadBytes())
	if err != nil {
		return respondError(c, err)
	}

	profile, err := s.profileService.UploadAvatar(c.UserContext(), currentUserID(c), content, fh.Header.Get("Content-Type"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
