package jwt

import (
	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token body shared by the remote authority and the
// local signer.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (c *Claims) payload() (*domain.TokenPayload, error) {
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}

	p := &domain.TokenPayload{
		Subject: c.Subject,
		Email:   c.Email,
		Name:    c.Name,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}

	return p, nil
}

// Recorder receives the outcome of every verification and issuance step
type Recorder interface {
	ObserveVerification(strategy string, ok bool)
	ObserveIssuance(strategy string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveVerification(string, bool) {}
func (nopRecorder) ObserveIssuance(string, bool)     {}
