package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	City         *string    `json:"city" db:"city"`
	Role         Role       `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt" db:"last_login_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser is the outward projection of a User. Token fields are only
// populated right after issuance (register/login).
type PublicUser struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	City         *string    `json:"city" db:"city"`
	Role         Role       `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt" db:"last_login_at"`
	Token        *string    `json:"token,omitempty" db:"-"`
	RefreshToken *string    `json:"refresh_token,omitempty" db:"-"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		City:        u.City,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// WithTokens attaches a freshly issued pair to the projection.
func (p *PublicUser) WithTokens(pair *TokenPair) *PublicUser {
	if pair == nil {
		return p
	}
	token, refresh := pair.Token, pair.RefreshToken
	p.Token = &token
	p.RefreshToken = &refresh
	return p
}
