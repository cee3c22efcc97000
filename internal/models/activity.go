package models

import "time"

// ActivityEntry is a human-readable line in a project's activity feed
type ActivityEntry struct {
	ID        int       `json:"id"`
	ProjectID int       `json:"projectId"`
	UserID    int       `json:"userId"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditEntry records a mutation for audit purposes. OldData and NewData hold
// JSON snapshots of the entity before and after the change.
type AuditEntry struct {
	ID         int       `json:"id"`
	Action     string    `json:"action"` // CREATE, UPDATE, DELETE
	EntityType string    `json:"entityType"`
	EntityID   int       `json:"entityId"`
	OldData    string    `json:"oldData,omitempty"`
	NewData    string    `json:"newData,omitempty"`
	UserID     int       `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}
