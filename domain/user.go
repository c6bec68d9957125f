package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The password is stored only as an
// argon2id hash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}
