package models

// Principal is the verified identity attached to a request after the bearer
// token has been validated and its session resolved.
type Principal struct {
	UserID    int
	Email     string
	SessionID string
}
