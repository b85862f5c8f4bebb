package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sessionColumns = `id, user_id, login_time, logout_time, duration_seconds, created_at`

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new open session
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, login_time, logout_time, duration_seconds, created_at
		) VALUES (
			:id, :user_id, :login_time, :logout_time, :duration_seconds, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID
func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	var session domain.Session
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return &session, nil
}

// Close closes an open session in a single statement, so two concurrent
// logouts cannot both write.
func (r *sessionRepository) Close(ctx context.Context, id uuid.UUID, logoutTime time.Time, durationSeconds int64) (*domain.Session, error) {
	query := `
		UPDATE sessions
		SET logout_time = $1,
			duration_seconds = $2
		WHERE id = $3 AND logout_time IS NULL
		RETURNING ` + sessionColumns

	var session domain.Session
	err := r.db.GetContext(ctx, &session, query, logoutTime, durationSeconds, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrAlreadyClosed
		}
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	return &session, nil
}

// List retrieves sessions newest login first, with owner details
func (r *sessionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Session, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sessions`); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query := `
		SELECT s.id, s.user_id, s.login_time, s.logout_time, s.duration_seconds, s.created_at,
			   u.email AS user_email, u.name AS user_name
		FROM sessions s
		LEFT JOIN users u ON u.id = s.user_id
		ORDER BY s.login_time DESC
		LIMIT $1 OFFSET $2`

	sessions := []*domain.Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, total, nil
}
