package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
	"go.uber.org/zap"
)

// TaskRepository is the interface that wraps methods for tasks table data access
type TaskRepository interface {
	// Method Create inserts a new task.
	Create(ctx context.Context, task *models.Task) error
	// Method GetByID retrieves a task by id.
	//
	// Returns apperrors.ErrNotFound when no such task exists.
	GetByID(ctx context.Context, taskID int) (*models.Task, error)
	// Method Update updates a task's mutable fields.
	Update(ctx context.Context, task *models.Task) error
	// Method Delete deletes a task by id.
	Delete(ctx context.Context, taskID int) error
	// Method ListByProject retrieves all tasks of a project.
	ListByProject(ctx context.Context, projectID int) ([]models.Task, error)
	// Method Filter retrieves tasks across the user's projects narrowed by the
	// filter criteria.
	Filter(ctx context.Context, userID int, filter *models.TaskFilter) ([]models.Task, error)
}

// AuditRecorder is the interface that wraps audit log writes
type AuditRecorder interface {
	// Method Create inserts an audit entry.
	Create(ctx context.Context, entry *models.AuditEntry) error
}

// Notifier is the interface that wraps notification fan-out
type Notifier interface {
	// Method Notify persists a notification for the user and queues its delivery.
	Notify(ctx context.Context, userID, taskID int, notificationType, message string) error
}

// AttachmentRepository is the interface that wraps attachment metadata writes
type AttachmentRepository interface {
	// Method Create inserts an attachment row.
	Create(ctx context.Context, attachment *models.Attachment) error
	// Method ListByTask retrieves a task's attachments.
	ListByTask(ctx context.Context, taskID int) ([]models.Attachment, error)
}

// FileStore is the interface that wraps attachment file storage
type FileStore interface {
	// Method Save writes the file and returns its storage key.
	Save(filename string, r io.Reader) (string, error)
	// Method Remove deletes a stored file by its storage key.
	Remove(key string) error
}

// taskService implements task business logic. The uniform per-route role
// gates have already run by the time these methods are called; the checks
// kept here are the operation-specific ones (task/project consistency,
// assignee rules, ownership).
type taskService struct {
	taskRepo       TaskRepository
	projectRepo    ProjectFinder
	userRepo       UserFinder
	attachmentRepo AttachmentRepository
	activityRepo   ActivityRecorder
	auditRepo      AuditRecorder
	notifier       Notifier
	store          FileStore
	logger         *zap.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo TaskRepository,
	projectRepo ProjectFinder,
	userRepo UserFinder,
	attachmentRepo AttachmentRepository,
	activityRepo ActivityRecorder,
	auditRepo AuditRecorder,
	notifier Notifier,
	store FileStore,
	logger *zap.Logger,
) *taskService {
	return &taskService{
		taskRepo:       taskRepo,
		projectRepo:    projectRepo,
		userRepo:       userRepo,
		attachmentRepo: attachmentRepo,
		activityRepo:   activityRepo,
		auditRepo:      auditRepo,
		notifier:       notifier,
		store:          store,
		logger:         logger,
	}
}

// Create creates a task in the project. An absent assignee defaults to the
// creator; an unknown assignee fails with NotFound rather than being
// silently invented.
func (s *taskService) Create(ctx context.Context, userID, projectID int, req *models.CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: task title cannot be empty", apperrors.ErrValidation)
	}

	assigneeID := userID
	if req.AssigneeID != 0 {
		if _, err := s.userRepo.GetByID(ctx, req.AssigneeID); err != nil {
			return nil, fmt.Errorf("assignee %d: %w", req.AssigneeID, err)
		}
		assigneeID = req.AssigneeID
	}

	status := req.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  assigneeID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "CREATE", task.ID, userID, nil, task)
	s.recordActivity(ctx, projectID, userID,
		fmt.Sprintf("Created task %q (%d) assigned to %d", task.Title, task.ID, assigneeID))

	return task, nil
}

// List retrieves all tasks of the project
func (s *taskService) List(ctx context.Context, projectID int) ([]models.Task, error) {
	return s.taskRepo.ListByProject(ctx, projectID)
}

// Filter retrieves tasks across every project the caller owns or belongs to
func (s *taskService) Filter(ctx context.Context, userID int, filter *models.TaskFilter) ([]models.Task, error) {
	return s.taskRepo.Filter(ctx, userID, filter)
}

// Update updates a task. The project owner is notified when the title or
// description changed.
func (s *taskService) Update(ctx context.Context, userID, projectID, taskID int, req *models.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.findInProject(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: task title cannot be empty", apperrors.ErrValidation)
	}

	old := *task

	task.Title = title
	task.Description = req.Description
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "UPDATE", task.ID, userID, &old, task)
	s.recordActivity(ctx, projectID, userID,
		fmt.Sprintf("Updated task %q (%d)", task.Title, task.ID))

	titleChanged := old.Title != task.Title
	descChanged := old.Description != task.Description
	if titleChanged || descChanged {
		project, err := s.projectRepo.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}

		var changed []string
		if titleChanged {
			changed = append(changed, "title")
		}
		if descChanged {
			changed = append(changed, "description")
		}

		if err := s.notifier.Notify(ctx, project.OwnerID, task.ID, models.NotificationTaskUpdate,
			fmt.Sprintf("Task %q %s updated by user %d.", task.Title, strings.Join(changed, " & "), userID),
		); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// Delete deletes a task, removes its attachment files and notifies the
// assignee. The attachment rows go with the task row; their files on disk
// do not, so they are collected before the delete and removed after it.
func (s *taskService) Delete(ctx context.Context, userID, projectID, taskID int) error {
	task, err := s.findInProject(ctx, projectID, taskID)
	if err != nil {
		return err
	}

	attachments, err := s.attachmentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "DELETE", task.ID, userID, task, nil)

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	for _, a := range attachments {
		if err := s.store.Remove(a.StorageKey); err != nil {
			s.logger.Warn("failed to remove attachment file",
				zap.Error(err), zap.String("storageKey", a.StorageKey))
		}
	}

	if task.AssigneeID != 0 {
		if err := s.notifier.Notify(ctx, task.AssigneeID, taskID, models.NotificationTaskDelete,
			fmt.Sprintf("Task %q was deleted by user %d.", task.Title, userID),
		); err != nil {
			return err
		}
	}

	s.recordActivity(ctx, projectID, userID,
		fmt.Sprintf("Deleted task %q (%d)", task.Title, taskID))

	return nil
}

// Attach stores a file against the task. Only the task's assignee or the
// project owner may attach files; this is a relationship check, not a role
// check, so it lives here rather than in the route gate.
func (s *taskService) Attach(ctx context.Context, userID, projectID, taskID int, filename, mime string, size int64, r io.Reader) (*models.Attachment, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	task, err := s.findInProject(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}

	if task.AssigneeID != userID && project.OwnerID != userID {
		return nil, apperrors.ErrForbidden
	}

	storageKey, err := s.store.Save(filename, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}

	attachment := &models.Attachment{
		TaskID:      task.ID,
		ProjectID:   project.ID,
		Filename:    filename,
		Mime:        mime,
		Size:        size,
		StorageKey:  storageKey,
		CreatedByID: userID,
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, projectID, userID,
		fmt.Sprintf("Uploaded file %q to task %q (%d)", filename, task.Title, taskID))

	return attachment, nil
}

// findInProject retrieves a task and verifies it belongs to the project
func (s *taskService) findInProject(ctx context.Context, projectID, taskID int) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID != projectID {
		return nil, apperrors.ErrNotFound
	}
	return task, nil
}

// recordAudit writes an audit entry with JSON snapshots of the task before
// and after the change. Audit failures are logged, not fatal to the request.
func (s *taskService) recordAudit(ctx context.Context, action string, taskID, userID int, before, after *models.Task) {
	entry := &models.AuditEntry{
		Action:     action,
		EntityType: "TASK",
		EntityID:   taskID,
		UserID:     userID,
	}
	if before != nil {
		if data, err := json.Marshal(before); err == nil {
			entry.OldData = string(data)
		}
	}
	if after != nil {
		if data, err := json.Marshal(after); err == nil {
			entry.NewData = string(data)
		}
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit entry", zap.Error(err), zap.Int("taskId", taskID))
	}
}

// recordActivity writes an activity feed line, logging on failure
func (s *taskService) recordActivity(ctx context.Context, projectID, userID int, action string) {
	if err := s.activityRepo.Create(ctx, &models.ActivityEntry{
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
	}); err != nil {
		s.logger.Warn("failed to record activity", zap.Error(err), zap.Int("projectId", projectID))
	}
}
