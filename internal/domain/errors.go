package domain

import (
	"errors"
	"net/http"
)

// FieldError is a single validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is a typed failure carrying the HTTP status it maps to. Base keeps
// the underlying cause for server-side logs and is never sent to clients.
type AppError struct {
	Code    int
	Message string
	Fields  []FieldError
	Base    error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Base
}

// Is matches another AppError by status code, so callers can write
// errors.Is(err, domain.ErrUnauthorized("")).
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) IsInternal() bool {
	return e.Code/100 == 5
}

func (e *AppError) Wrap(base error) *AppError {
	e.Base = base
	return e
}

func ErrUnauthorized(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return &AppError{Code: http.StatusUnauthorized, Message: message}
}

func ErrForbidden(message string) *AppError {
	if message == "" {
		message = "Forbidden"
	}
	return &AppError{Code: http.StatusForbidden, Message: message}
}

func ErrNotFound(message string) *AppError {
	if message == "" {
		message = "Resource not found"
	}
	return &AppError{Code: http.StatusNotFound, Message: message}
}

func ErrConflict(message string) *AppError {
	if message == "" {
		message = "Conflict"
	}
	return &AppError{Code: http.StatusConflict, Message: message}
}

func ErrValidation(fields []FieldError) *AppError {
	return &AppError{Code: http.StatusUnprocessableEntity, Message: "Validation failed", Fields: fields}
}

func ErrBadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: message}
}

func ErrBadGateway(message string, base error) *AppError {
	return &AppError{Code: http.StatusBadGateway, Message: message, Base: base}
}

func ErrInternal(base error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: "Internal server error", Base: base}
}

// ErrInternalMessage is a 500 whose message is safe to show in production
func ErrInternalMessage(message string, base error) *AppError {
	return &AppError{Code: http.StatusInternalServerError, Message: message, Base: base}
}

// AsAppError extracts an AppError from the chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
