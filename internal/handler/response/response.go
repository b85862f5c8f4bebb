// Package response holds the JSON envelope every endpoint answers with and
// the Fiber error handler that renders failures into it.
package response

import (
	"errors"
	"math"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/andressep95/city-news-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

const msgInternal = "Internal server error"

type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
	Meta    *Meta               `json:"meta,omitempty"`
}

// Meta describes one page of a listing
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewMeta(total, page, limit int) *Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

func Success(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Success: true, Message: message, Data: data})
}

func Paginated(c *fiber.Ctx, message string, data any, meta *Meta) error {
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

func Error(c *fiber.Ctx, status int, message string, fields []domain.FieldError) error {
	return c.Status(status).JSON(Envelope{Success: false, Message: message, Errors: fields})
}

// ErrorHandler renders every error returned by a handler or middleware. Typed
// errors keep their status and message. Anything else is a 500 whose detail
// is only exposed outside production.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		ctx := c.UserContext()

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Error(c, fiber.StatusUnprocessableEntity, "Validation failed", []domain.FieldError(validationErrs))
		}

		if appErr, ok := domain.AsAppError(err); ok {
			message := appErr.Message
			if appErr.IsInternal() {
				logger.Errorw(ctx, "request failed",
					"method", c.Method(),
					"path", c.Path(),
					"status", appErr.Code,
					"error", appErr.Base,
				)
				if !production && message == msgInternal && appErr.Base != nil {
					message = appErr.Base.Error()
				}
			}
			return Error(c, appErr.Code, message, appErr.Fields)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return Error(c, fiberErr.Code, fiberErr.Message, nil)
		}

		logger.Errorw(ctx, "unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)

		message := msgInternal
		if !production {
			message = err.Error()
		}
		return Error(c, fiber.StatusInternalServerError, message, nil)
	}
}

// NotFound answers any request no route matched
func NotFound(c *fiber.Ctx) error {
	return Error(c, fiber.StatusNotFound, "Route "+c.Method()+" "+c.Path()+" not found", nil)
}
