package postgres

import (
	"context"
	"fmt"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/jmoiron/sqlx"
)

type searchRepository struct {
	db *sqlx.DB
}

// NewSearchRepository creates a new PostgreSQL search log repository
func NewSearchRepository(db *sqlx.DB) repository.SearchRepository {
	return &searchRepository{db: db}
}

func (r *searchRepository) Create(ctx context.Context, search *domain.Search) error {
	query := `
		INSERT INTO searches (
			id, user_id, session_id, search_query, city, timestamp
		) VALUES (
			:id, :user_id, :session_id, :search_query, :city, :timestamp
		)`

	_, err := r.db.NamedExecContext(ctx, query, search)
	if err != nil {
		return fmt.Errorf("failed to create search: %w", err)
	}

	return nil
}

func (r *searchRepository) List(ctx context.Context, limit, offset int) ([]*domain.Search, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM searches`); err != nil {
		return nil, 0, fmt.Errorf("failed to count searches: %w", err)
	}

	query := `
		SELECT q.id, q.user_id, q.session_id, q.search_query, q.city, q.timestamp,
			   u.email AS user_email, u.name AS user_name
		FROM searches q
		LEFT JOIN users u ON u.id = q.user_id
		ORDER BY q.timestamp DESC
		LIMIT $1 OFFSET $2`

	searches := []*domain.Search{}
	if err := r.db.SelectContext(ctx, &searches, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list searches: %w", err)
	}

	return searches, total, nil
}
