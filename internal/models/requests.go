package models

// SignupRequest represents a signup request
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// RefreshRequest represents a refresh token exchange request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by signup, login and refresh
type AuthResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         PublicUser `json:"user"`
	SessionID    string     `json:"sessionId"`
}

// PublicUser is the externally visible shape of a user
type PublicUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public converts a User to its externally visible shape
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ProjectRequest represents a project create or update request
type ProjectRequest struct {
	Name    string          `json:"name"`
	Members []MemberRequest `json:"members,omitempty"`
}

// MemberRequest represents a membership grant inside a project request
type MemberRequest struct {
	UserID int         `json:"userId"`
	Role   ProjectRole `json:"role"`
}

// CreateTaskRequest represents a task creation request
type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
	AssigneeID  int          `json:"assigneeId,omitempty"`
}

// UpdateTaskRequest represents a task update request
type UpdateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status,omitempty"`
	Priority    TaskPriority `json:"priority,omitempty"`
}

// PaymentRequest represents a premium payment initiation request
type PaymentRequest struct {
	Amount int `json:"amount"` // major units
}
