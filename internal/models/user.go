package models

import "time"

// User is the durable record kept for a chat identity. Profile data lives
// with the external identity provider; this row only tracks what the relay
// itself learns about a user.
type User struct {
	Email     string    `json:"email"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
}
