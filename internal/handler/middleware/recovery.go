package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// RecoveryMiddleware turns a panic into a 500 for the error handler
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw(c.UserContext(), "panic recovered",
					"panic", r,
					"stack", string(debug.Stack()),
				)
				err = domain.ErrInternal(fmt.Errorf("panic: %v", r))
			}
		}()

		return c.Next()
	}
}
