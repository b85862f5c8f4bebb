package service

import (
	"context"
	"time"

	"github.com/andressep95/city-news-api/internal/domain"
)

// TokenIssuer obtains a token pair for a user
type TokenIssuer interface {
	Issue(ctx context.Context, id domain.Identity) (*domain.TokenPair, error)
}

// TokenRevoker blacklists an access token until it expires
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
}

// PasswordHasher is satisfied by *hash.PasswordHasher
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, encodedHash string) (bool, error)
	BurnCompare(password string)
}

// Recorder receives business events for metrics
type Recorder interface {
	ObserveLogin(outcome string)
	ObserveSessionClosed()
	ObserveSearchLogFailure()
}

type nopRecorder struct{}

func (nopRecorder) ObserveLogin(string)      {}
func (nopRecorder) ObserveSessionClosed()    {}
func (nopRecorder) ObserveSearchLogFailure() {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
