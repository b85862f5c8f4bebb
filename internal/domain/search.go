package domain

import (
	"time"

	"github.com/google/uuid"
)

type Search struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	SessionID   uuid.UUID `json:"sessionId" db:"session_id"`
	SearchQuery string    `json:"searchQuery" db:"search_query"`
	City        string    `json:"city" db:"city"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`

	// Populated by admin listings only
	UserEmail *string `json:"userEmail,omitempty" db:"user_email"`
	UserName  *string `json:"userName,omitempty" db:"user_name"`
}
