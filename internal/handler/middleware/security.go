package middleware

import (
	"time"

	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func SecurityHeaders() fiber.Handler {
	return helmet.New()
}

// RateLimiter caps each client IP at max requests per window
func RateLimiter(window time.Duration, max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, "Too many requests, please try again later.", nil)
		},
	})
}
