package models

import "time"

// TaskStatus is the workflow state of a task
type TaskStatus string

// Task status constants
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// TaskPriority is the priority of a task
type TaskPriority string

// Task priority constants
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task represents a task within a project
type Task struct {
	ID          int          `json:"id"`
	ProjectID   int          `json:"projectId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssigneeID  int          `json:"assigneeId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TaskFilter holds the optional criteria for filtering tasks across the
// caller's projects. Zero values mean "not filtered".
type TaskFilter struct {
	AssigneeID int
	Status     TaskStatus
	Priority   TaskPriority
	Search     string
}

// Attachment represents a file attached to a task
type Attachment struct {
	ID          int       `json:"id"`
	TaskID      int       `json:"taskId"`
	ProjectID   int       `json:"projectId"`
	Filename    string    `json:"filename"`
	Mime        string    `json:"mime"`
	Size        int64     `json:"size"`
	StorageKey  string    `json:"-"`
	CreatedByID int       `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
}
