package middleware

import (
	"time"

	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HTTPObserver is satisfied by *metrics.Metrics
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// LoggerMiddleware attaches a request scoped logger to the user context and
// logs one line per completed request. Errors are rendered here so the logged
// status is the one the client sees. Must run after requestid.
func LoggerMiddleware(base *zap.SugaredLogger, observer HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		l := base.With("request_id", c.GetRespHeader(fiber.HeaderXRequestID))
		c.SetUserContext(logger.ToContext(c.UserContext(), l))

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		fields := []any{
			"method", c.Method(),
			"route", route,
			"originalUrl", c.OriginalURL(),
			"status", status,
			"durationMs", elapsed.Milliseconds(),
			"ip", c.IP(),
			"userAgent", c.Get(fiber.HeaderUserAgent),
		}
		if status >= fiber.StatusInternalServerError {
			l.Errorw("HTTP request completed", fields...)
		} else {
			l.Infow("HTTP request completed", fields...)
		}

		if observer != nil {
			observer.ObserveHTTP(c.Method(), route, status, elapsed)
		}

		return nil
	}
}
