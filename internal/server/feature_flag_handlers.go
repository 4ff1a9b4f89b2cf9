package server

import (
	"strconv"

	"sharify/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags lists every flag and whether it is on for a user. The
// user defaults to the caller; admins may pass ?user_id= to preview another
// user's rollout.
// @Summary Feature flags
// @Tags admin
// @Security BearerAuth
// @Param user_id query int false "Evaluate for this user"
// @Success 200 {object} object{user_id=int,flags=[]featureflags.Status}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("user_id must be a positive integer"))
		}
		userID = uint(id)
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"flags":   s.featureFlags.Evaluate(userID),
	})
}
