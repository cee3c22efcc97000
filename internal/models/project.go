package models

import "time"

// ProjectRole is the role a user holds within a single project
type ProjectRole string

// Project role constants, shared by the decision point and the data layer
const (
	ProjectRoleAdmin   ProjectRole = "ADMIN"
	ProjectRoleManager ProjectRole = "MANAGER"
	ProjectRoleUser    ProjectRole = "USER"
)

// AllProjectRoles is the full role set, used to gate routes open to any
// project member (the ownership override applies on top)
var AllProjectRoles = []ProjectRole{ProjectRoleAdmin, ProjectRoleManager, ProjectRoleUser}

// Valid reports whether the role is one of the known project roles
func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleAdmin, ProjectRoleManager, ProjectRoleUser:
		return true
	}
	return false
}

// Project represents a project owned by a user
type Project struct {
	ID        int                 `json:"id"`
	Name      string              `json:"name"`
	OwnerID   int                 `json:"ownerId"`
	Members   []ProjectMembership `json:"members,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// ProjectMembership grants a user a role within a specific project.
// Unique per (user, project); the owner always holds an ADMIN row.
type ProjectMembership struct {
	UserID    int         `json:"userId"`
	ProjectID int         `json:"projectId"`
	Role      ProjectRole `json:"role"`
}
