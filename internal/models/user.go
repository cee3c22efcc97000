package models

import "time"

// User represents a registered account
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`    // Never serialize password hash
	Role         string    `json:"role"` // global role tag, default USER
	CreatedAt    time.Time `json:"createdAt"`
}

// GlobalRoleUser is the default global role assigned at signup
const GlobalRoleUser = "USER"
