package handler

import (
	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/handler/middleware"
	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/andressep95/city-news-api/internal/service"
	"github.com/andressep95/city-news-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService *service.UserService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator,
	}
}

// UpdateCity sets the caller's preferred city
// PUT /api/users/city
func (h *UserHandler) UpdateCity(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.ErrUnauthorized("")
	}

	var req service.UpdateCityRequest
	if err := c.BodyParser(&req); err != nil {
		return errInvalidBody
	}

	if err := h.validator.Validate(req); err != nil {
		return err
	}

	user, err := h.userService.UpdateCity(c.UserContext(), principal.UserID, req.City)
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, "City updated successfully", fiber.Map{"user": user})
}
