package domain

import (
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request. It is built once by the
// auth middleware and passed by value from there on.
type Principal struct {
	UserID         uuid.UUID
	Subject        string
	Email          string
	Role           Role
	Token          string
	TokenExpiresAt time.Time
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
