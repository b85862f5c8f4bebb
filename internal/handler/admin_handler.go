package handler

import (
	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/andressep95/city-news-api/internal/service"
	"github.com/andressep95/city-news-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	adminService *service.AdminService
	validator    *validator.Validator
}

func NewAdminHandler(adminService *service.AdminService, validator *validator.Validator) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validator:    validator,
	}
}

// GetUsers GET /api/admin/users
func (h *AdminHandler) GetUsers(c *fiber.Ctx) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}

	users, total, err := h.adminService.ListUsers(c.UserContext(), page)
	if err != nil {
		return err
	}

	return response.Paginated(c, "Users fetched", fiber.Map{"users": users}, response.NewMeta(total, page.Page, page.Limit))
}

// GetSessions GET /api/admin/sessions
func (h *AdminHandler) GetSessions(c *fiber.Ctx) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}

	sessions, total, err := h.adminService.ListSessions(c.UserContext(), page)
	if err != nil {
		return err
	}

	return response.Paginated(c, "Sessions fetched", fiber.Map{"sessions": sessions}, response.NewMeta(total, page.Page, page.Limit))
}

// GetSearches GET /api/admin/searches
func (h *AdminHandler) GetSearches(c *fiber.Ctx) error {
	page, err := h.page(c)
	if err != nil {
		return err
	}

	searches, total, err := h.adminService.ListSearches(c.UserContext(), page)
	if err != nil {
		return err
	}

	return response.Paginated(c, "Searches fetched", fiber.Map{"searches": searches}, response.NewMeta(total, page.Page, page.Limit))
}

func (h *AdminHandler) page(c *fiber.Ctx) (service.Page, error) {
	page := service.Page{Page: service.DefaultPage, Limit: service.DefaultLimit}
	if err := c.QueryParser(&page); err != nil {
		return page, errInvalidQuery
	}

	if err := h.validator.Validate(page); err != nil {
		return page, err
	}

	return page, nil
}
