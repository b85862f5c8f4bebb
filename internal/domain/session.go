package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one login-to-logout period. LogoutTime and DurationSeconds are
// either both nil (open) or both set (closed).
type Session struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"userId" db:"user_id"`
	LoginTime       time.Time  `json:"loginTime" db:"login_time"`
	LogoutTime      *time.Time `json:"logoutTime" db:"logout_time"`
	DurationSeconds *int64     `json:"durationSeconds" db:"duration_seconds"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`

	// Populated by admin listings only
	UserEmail *string `json:"userEmail,omitempty" db:"user_email"`
	UserName  *string `json:"userName,omitempty" db:"user_name"`
}

func NewSession(userID uuid.UUID, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		LoginTime: now,
		CreatedAt: now,
	}
}

// IsOpen reports whether the session has not been closed yet
func (s *Session) IsOpen() bool {
	return s.LogoutTime == nil
}

// BelongsTo checks session ownership
func (s *Session) BelongsTo(userID uuid.UUID) bool {
	return s.UserID == userID
}

// CloseAt computes the closing values for a logout at t. The duration is
// floored to whole seconds and never negative, even if clocks disagree.
func (s *Session) CloseAt(t time.Time) (time.Time, int64) {
	duration := int64(t.Sub(s.LoginTime) / time.Second)
	if duration < 0 {
		duration = 0
	}
	return t, duration
}
