package middleware

import (
	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// RequireAdmin must run after AuthMiddleware
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return domain.ErrUnauthorized("")
		}

		if !principal.IsAdmin() {
			return domain.ErrForbidden("Admin access required")
		}

		return c.Next()
	}
}
