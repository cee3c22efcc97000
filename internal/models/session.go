package models

import "time"

// Session represents one authenticated login instance.
// A session is revocable independently of token expiry: deleting the row
// immediately invalidates every token that references it.
type Session struct {
	ID         string    `json:"id"` // UUID, never reused
	UserID     int       `json:"userId"`
	SecretHash string    `json:"-"` // SHA-256 digest of the current refresh token
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}
