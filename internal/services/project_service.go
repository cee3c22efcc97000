package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// ProjectRepository is the interface that wraps methods for projects table data access
type ProjectRepository interface {
	// Method Create inserts the project, the owner's ADMIN membership and any
	// extra memberships in one transaction.
	Create(ctx context.Context, project *models.Project, extraMembers []models.MemberRequest) error
	// Method GetByID retrieves a project by id.
	//
	// Returns apperrors.ErrNotFound when no such project exists.
	GetByID(ctx context.Context, projectID int) (*models.Project, error)
	// Method ListForUser retrieves all projects the user owns or is a member of.
	ListForUser(ctx context.Context, userID int) ([]models.Project, error)
	// Method UpdateName updates a project's name.
	UpdateName(ctx context.Context, projectID int, name string) error
	// Method Delete deletes a project and its dependent rows.
	Delete(ctx context.Context, projectID int) error
}

// MembershipRepository is the interface that wraps membership writes
type MembershipRepository interface {
	MembershipResolver
	// Method Create inserts a membership row; duplicate (user, project) fails.
	Create(ctx context.Context, membership *models.ProjectMembership) error
}

// UserFinder is the interface that wraps user lookup by id
type UserFinder interface {
	// Method GetByID retrieves a user by ID.
	//
	// Returns apperrors.ErrNotFound when no such user exists.
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// Authorizer is the decision point consumed by project and task services
type Authorizer interface {
	// Method Authorize permits or denies an action on a project; an empty
	// required set allows any authenticated caller, the owner always passes.
	Authorize(ctx context.Context, userID, projectID int, required ...models.ProjectRole) error
	// Method AuthorizeOwner permits only the project owner.
	AuthorizeOwner(ctx context.Context, userID, projectID int) error
}

// ActivityRecorder is the interface that wraps activity feed writes
type ActivityRecorder interface {
	// Method Create inserts an activity entry.
	Create(ctx context.Context, entry *models.ActivityEntry) error
	// Method ListByProject retrieves a project's activity entries, newest first.
	ListByProject(ctx context.Context, projectID int) ([]models.ActivityEntry, error)
}

// projectService implements project and membership business logic
type projectService struct {
	projectRepo    ProjectRepository
	membershipRepo MembershipRepository
	userRepo       UserFinder
	activityRepo   ActivityRecorder
	authz          Authorizer
	logger         *zap.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo ProjectRepository,
	membershipRepo MembershipRepository,
	userRepo UserFinder,
	activityRepo ActivityRecorder,
	authz Authorizer,
	logger *zap.Logger,
) *projectService {
	return &projectService{
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		activityRepo:   activityRepo,
		authz:          authz,
		logger:         logger,
	}
}

// Create creates a project owned by the caller. The owner always receives an
// ADMIN membership; extra members may be granted roles in the same request.
func (s *projectService) Create(ctx context.Context, userID int, req *models.ProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name cannot be empty", apperrors.ErrValidation)
	}

	for _, m := range req.Members {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: invalid role %q for user %d", apperrors.ErrValidation, m.Role, m.UserID)
		}
		if _, err := s.userRepo.GetByID(ctx, m.UserID); err != nil {
			return nil, fmt.Errorf("member user %d: %w", m.UserID, err)
		}
	}

	project := &models.Project{
		Name:    name,
		OwnerID: userID,
	}

	if err := s.projectRepo.Create(ctx, project, req.Members); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.Int("projectId", project.ID), zap.Int("ownerId", userID))

	return project, nil
}

// List retrieves the projects the caller owns or belongs to
func (s *projectService) List(ctx context.Context, userID int) ([]models.Project, error) {
	return s.projectRepo.ListForUser(ctx, userID)
}

// Update renames a project. The route's role gate has already consulted the
// decision point; this only validates and applies.
func (s *projectService) Update(ctx context.Context, projectID int, req *models.ProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name cannot be empty", apperrors.ErrValidation)
	}

	if err := s.projectRepo.UpdateName(ctx, projectID, name); err != nil {
		return nil, err
	}

	return s.projectRepo.GetByID(ctx, projectID)
}

// Delete removes a project. Only the owner may delete, regardless of
// membership roles.
func (s *projectService) Delete(ctx context.Context, userID, projectID int) error {
	if err := s.authz.AuthorizeOwner(ctx, userID, projectID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return err
	}

	s.logger.Info("project deleted", zap.Int("projectId", projectID), zap.Int("userId", userID))
	return nil
}

// AddMember grants a user a role on the project (invitation acceptance).
// The route's ADMIN gate has already consulted the decision point.
func (s *projectService) AddMember(ctx context.Context, callerID, projectID int, req *models.MemberRequest) error {
	if !req.Role.Valid() {
		return fmt.Errorf("%w: invalid role %q", apperrors.ErrValidation, req.Role)
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return err
	}

	membership := &models.ProjectMembership{
		UserID:    req.UserID,
		ProjectID: projectID,
		Role:      req.Role,
	}

	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return err
	}

	if err := s.activityRepo.Create(ctx, &models.ActivityEntry{
		ProjectID: projectID,
		UserID:    callerID,
		Action:    fmt.Sprintf("Added user %d as %s", req.UserID, req.Role),
	}); err != nil {
		s.logger.Warn("failed to record activity", zap.Error(err))
	}

	return nil
}

// Activity retrieves the project's activity feed, newest first
func (s *projectService) Activity(ctx context.Context, projectID int) ([]models.ActivityEntry, error) {
	return s.activityRepo.ListByProject(ctx, projectID)
}
