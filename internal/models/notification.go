package models

import "time"

// Notification represents a message queued for a user about a task event
type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	TaskID    int       `json:"taskId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification type constants
const (
	NotificationTaskUpdate = "TASK_UPDATE"
	NotificationTaskDelete = "TASK_DELETE"
)
