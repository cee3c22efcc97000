package services

import (
	"context"
	"errors"
	"slices"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// MembershipResolver is the interface that wraps the role lookup for a user
// within a project.
type MembershipResolver interface {
	// Method RoleOf looks up the user's role within the project.
	//
	// Returns apperrors.ErrNotFound when no membership row exists.
	RoleOf(ctx context.Context, userID, projectID int) (models.ProjectRole, error)
}

// ProjectFinder is the interface that wraps project lookup by id
type ProjectFinder interface {
	// Method GetByID retrieves a project by id.
	//
	// Returns apperrors.ErrNotFound when no such project exists.
	GetByID(ctx context.Context, projectID int) (*models.Project, error)
}

// authzService is the authorization decision point. It turns
// (identity, required roles, project) into allow or deny and never logs and
// continues past a denial.
type authzService struct {
	projects    ProjectFinder
	memberships MembershipResolver
	logger      *zap.Logger
}

// NewAuthzService creates a new authorization service
func NewAuthzService(projects ProjectFinder, memberships MembershipResolver, logger *zap.Logger) *authzService {
	return &authzService{
		projects:    projects,
		memberships: memberships,
		logger:      logger,
	}
}

// Authorize permits or denies an action on a project.
//
// An empty required set allows any authenticated caller past the
// project-existence check; it is reserved for routes whose service applies a
// stricter relationship check of its own (attachment upload). Member-only
// routes pass the full role set instead. The project owner is
// always allowed: ownership is a relationship, not a role value, and is
// checked explicitly before membership. Otherwise the caller's membership
// role must be a member of the required set; absence of a membership row
// denies even an authenticated caller.
func (s *authzService) Authorize(ctx context.Context, userID, projectID int, required ...models.ProjectRole) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if len(required) == 0 {
		return nil
	}

	if project.OwnerID == userID {
		return nil
	}

	role, err := s.memberships.RoleOf(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Debug("authorization denied: no membership",
				zap.Int("userId", userID), zap.Int("projectId", projectID))
			return apperrors.ErrForbidden
		}
		return err
	}

	if !slices.Contains(required, role) {
		s.logger.Debug("authorization denied: insufficient role",
			zap.Int("userId", userID), zap.Int("projectId", projectID), zap.String("role", string(role)))
		return apperrors.ErrForbidden
	}

	return nil
}

// AuthorizeOwner permits only the project owner, regardless of membership
// roles. Used for operations the original reserves to ownership, such as
// project deletion.
func (s *authzService) AuthorizeOwner(ctx context.Context, userID, projectID int) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if project.OwnerID != userID {
		return apperrors.ErrForbidden
	}

	return nil
}
