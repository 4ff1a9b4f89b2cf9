package server

import (
	"sharify/internal/models"
	"sharify/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register an account. Unless confirmation is disabled, a link is mailed and the account stays unusable until it is followed.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignUpInput true "Signup request"
// @Success 201 {object} object{user=service.Identity,confirmation_required=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}

	identity, err := s.authService.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":                  identity,
		"confirmation_required": !identity.EmailConfirmed,
	})
}

// ConfirmEmail handles GET and POST /api/auth/confirm
// @Summary Confirm email address
// @Tags auth
// @Produce json
// @Param token query string false "Confirmation token"
// @Success 200 {object} service.Identity
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/confirm [get]
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" && c.Method() == fiber.MethodPost {
		var req struct {
			Token string `json:"token"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, bodyError())
		}
		token = req.Token
	}
	identity, err := s.authService.Confirm(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(identity)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login request"
// @Success 200 {object} service.Session
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}
	session, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session)
}

// Logout handles POST /api/auth/logout
// @Summary Revoke the current token
// @Description Blacklists the token and pushes SIGNED_OUT to the user's other sessions.
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	token, _ := c.Locals("token").(string)
	claims, err := s.authService.Logout(ctx, token)
	if err != nil {
		return respondError(c, err)
	}
	s.publishSignedOut(ctx, claims.UserID, "logout")
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GetSession handles GET /api/auth/session
// @Summary Current identity
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} service.Identity
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	identity, err := s.authService.Identity(c.UserContext(), currentUserID(c))
	if err != nil {
		if models.StatusFor(err) == fiber.StatusNotFound {
			return respondError(c, models.NewUnauthorizedError("Account no longer exists"))
		}
		return respondError(c, err)
	}
	return c.JSON(identity)
}

// ChangePassword handles POST /api/auth/password
// @Summary Replace the password of the signed-in account
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body object{password=string} true "New password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, bodyError())
	}
	if err := s.authService.ChangePassword(c.UserContext(), currentUserID(c), req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}
