package repository

import (
	"context"

	"github.com/andressep95/city-news-api/internal/domain"
)

type SearchRepository interface {
	Create(ctx context.Context, search *domain.Search) error
	// List returns searches newest first, joined with the owner's email and
	// name.
	List(ctx context.Context, limit, offset int) ([]*domain.Search, int, error)
}
