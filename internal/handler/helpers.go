package handler

import (
	"github.com/andressep95/city-news-api/internal/domain"
)

var (
	errInvalidBody  = domain.ErrBadRequest("Invalid request body")
	errInvalidQuery = domain.ErrBadRequest("Invalid query parameters")
)
