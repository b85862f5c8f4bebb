package handler

import (
	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/handler/middleware"
	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/andressep95/city-news-api/internal/service"
	"github.com/andressep95/city-news-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidBody
	}

	if err := h.validator.Validate(req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusCreated, "Registration successful", fiber.Map{"user": user})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidBody
	}

	if err := h.validator.Validate(req); err != nil {
		return err
	}

	resp, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, "Login successful", resp)
}

// Logout closes one of the caller's sessions
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.ErrUnauthorized("")
	}

	var req service.LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidBody
	}

	if err := h.validator.Validate(req); err != nil {
		return err
	}

	session, err := h.authService.Logout(c.UserContext(), principal, uuid.MustParse(req.SessionID))
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, "Logout successful", fiber.Map{"session": session})
}
