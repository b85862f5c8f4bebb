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

type NewsHandler struct {
	newsService *service.NewsService
	validator   *validator.Validator
}

func NewNewsHandler(newsService *service.NewsService, validator *validator.Validator) *NewsHandler {
	return &NewsHandler{
		newsService: newsService,
		validator:   validator,
	}
}

// Search returns today's news for a city
// GET /api/news?city=&sessionId=
func (h *NewsHandler) Search(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.ErrUnauthorized("")
	}

	var query service.NewsQuery
	if err := c.QueryParser(&query); err != nil {
		return errInvalidQuery
	}

	if err := h.validator.Validate(query); err != nil {
		return err
	}

	news, err := h.newsService.Search(c.UserContext(), principal, uuid.MustParse(query.SessionID), query.City)
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, "News fetched successfully", fiber.Map{"news": news})
}
