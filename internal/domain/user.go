package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the platform's account record the messaging core
// reads. Account management lives elsewhere; this service never writes
// users.
type User struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
