package repository

import (
	"context"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	// Close sets logout_time and duration_seconds on an open session. It
	// returns ErrAlreadyClosed if the session was closed in the meantime.
	Close(ctx context.Context, id uuid.UUID, logoutTime time.Time, durationSeconds int64) (*domain.Session, error)
	// List returns sessions newest login first, joined with the owner's
	// email and name.
	List(ctx context.Context, limit, offset int) ([]*domain.Session, int, error)
}
