package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/andressep95/city-news-api/internal/domain"
	"github.com/andressep95/city-news-api/internal/repository"
	"github.com/andressep95/city-news-api/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

const bearerPrefix = "Bearer "

type principalKey struct{}

// TokenVerifier is satisfied by the jwt verifier chain
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.TokenPayload, error)
}

type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// RevocationChecker is satisfied by *blacklist.TokenBlacklist
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware verifies the bearer token, resolves the user it names and
// stores the resulting Principal for downstream handlers. revocations may be
// nil, in which case no blacklist lookup happens.
func AuthMiddleware(verifier TokenVerifier, users UserLookup, revocations RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			return domain.ErrUnauthorized("Authorization token is required")
		}

		token := strings.TrimSpace(authHeader[len(bearerPrefix):])
		if token == "" {
			return domain.ErrUnauthorized("Authorization token is required")
		}

		payload, err := verifier.Verify(ctx, token)
		if err != nil {
			logger.Warnw(ctx, "token verification failed", "error", err)
			return domain.ErrUnauthorized("Invalid or expired token")
		}

		if payload.Email == "" {
			return domain.ErrUnauthorized("Token missing email claim")
		}

		user, err := users.GetByEmail(ctx, payload.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUnauthorized("User not found for this token")
			}
			return domain.ErrInternal(err)
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(ctx, token)
			if err != nil {
				return domain.ErrInternal(err)
			}
			if revoked {
				return domain.ErrUnauthorized("Token has been revoked")
			}
		}

		c.Locals(principalKey{}, domain.Principal{
			UserID:         user.ID,
			Subject:        payload.Subject,
			Email:          user.Email,
			Role:           user.Role,
			Token:          token,
			TokenExpiresAt: payload.ExpiresAt,
		})

		return c.Next()
	}
}

// PrincipalFrom returns the caller stored by AuthMiddleware
func PrincipalFrom(c *fiber.Ctx) (domain.Principal, bool) {
	p, ok := c.Locals(principalKey{}).(domain.Principal)
	return p, ok
}
