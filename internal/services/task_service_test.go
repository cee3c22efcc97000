package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/apperrors"
	"github.com/projectboard/backend/internal/models"
)

// mockTaskRepository is a mock implementation of TaskRepository
type mockTaskRepository struct {
	tasks     map[int]*models.Task
	nextID    int
	createErr error
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: make(map[int]*models.Task), nextID: 1}
}

func (m *mockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	task.ID = m.nextID
	m.nextID++
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskRepository) GetByID(ctx context.Context, taskID int) (*models.Task, error) {
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return apperrors.ErrNotFound
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, taskID int) error {
	if _, ok := m.tasks[taskID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

func (m *mockTaskRepository) ListByProject(ctx context.Context, projectID int) ([]models.Task, error) {
	var out []models.Task
	for _, task := range m.tasks {
		if task.ProjectID == projectID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) Filter(ctx context.Context, userID int, filter *models.TaskFilter) ([]models.Task, error) {
	var out []models.Task
	for _, task := range m.tasks {
		out = append(out, *task)
	}
	return out, nil
}

// mockAttachmentRepository is a mock implementation of AttachmentRepository
type mockAttachmentRepository struct {
	attachments []models.Attachment
}

func (m *mockAttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	attachment.ID = len(m.attachments) + 1
	m.attachments = append(m.attachments, *attachment)
	return nil
}

func (m *mockAttachmentRepository) ListByTask(ctx context.Context, taskID int) ([]models.Attachment, error) {
	return m.attachments, nil
}

// mockActivityRecorder is a mock implementation of ActivityRecorder
type mockActivityRecorder struct {
	entries []models.ActivityEntry
}

func (m *mockActivityRecorder) Create(ctx context.Context, entry *models.ActivityEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityRecorder) ListByProject(ctx context.Context, projectID int) ([]models.ActivityEntry, error) {
	return m.entries, nil
}

// mockAuditRecorder is a mock implementation of AuditRecorder
type mockAuditRecorder struct {
	entries []models.AuditEntry
}

func (m *mockAuditRecorder) Create(ctx context.Context, entry *models.AuditEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

// mockNotifier is a mock implementation of Notifier
type mockNotifier struct {
	notified []struct {
		UserID  int
		TaskID  int
		Type    string
		Message string
	}
}

func (m *mockNotifier) Notify(ctx context.Context, userID, taskID int, notificationType, message string) error {
	m.notified = append(m.notified, struct {
		UserID  int
		TaskID  int
		Type    string
		Message string
	}{userID, taskID, notificationType, message})
	return nil
}

// mockFileStore is a mock implementation of FileStore
type mockFileStore struct {
	saved   []string
	removed []string
	err     error
}

func (m *mockFileStore) Save(filename string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, filename)
	return "uploads/" + filename, nil
}

func (m *mockFileStore) Remove(key string) error {
	m.removed = append(m.removed, key)
	return nil
}

// taskServiceFixture bundles a task service with its observable mocks
type taskServiceFixture struct {
	svc         *taskService
	taskRepo    *mockTaskRepository
	attachments *mockAttachmentRepository
	activity    *mockActivityRecorder
	audit       *mockAuditRecorder
	notifier    *mockNotifier
	store       *mockFileStore
}

func newTaskServiceFixture(project *models.Project, user *models.User) *taskServiceFixture {
	logger, _ := zap.NewDevelopment()
	f := &taskServiceFixture{
		taskRepo:    newMockTaskRepository(),
		attachments: &mockAttachmentRepository{},
		activity:    &mockActivityRecorder{},
		audit:       &mockAuditRecorder{},
		notifier:    &mockNotifier{},
		store:       &mockFileStore{},
	}
	f.svc = NewTaskService(
		f.taskRepo,
		&mockProjectFinder{project: project},
		&mockUserRepository{user: user},
		f.attachments,
		f.activity,
		f.audit,
		f.notifier,
		f.store,
		logger,
	)
	return f
}

func TestTaskService_Create(t *testing.T) {
	project := &models.Project{ID: 10, Name: "board", OwnerID: 1}
	assignee := &models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}

	t.Run("defaults applied", func(t *testing.T) {
		f := newTaskServiceFixture(project, assignee)

		task, err := f.svc.Create(context.Background(), 1, 10, &models.CreateTaskRequest{
			Title: "  Write docs  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Write docs", task.Title)
		assert.Equal(t, models.TaskStatusTodo, task.Status)
		assert.Equal(t, models.TaskPriorityMedium, task.Priority)
		assert.Equal(t, 1, task.AssigneeID, "assignee defaults to the creator")

		require.Len(t, f.audit.entries, 1)
		assert.Equal(t, "CREATE", f.audit.entries[0].Action)
		assert.Empty(t, f.audit.entries[0].OldData)
		assert.NotEmpty(t, f.audit.entries[0].NewData)
		assert.Len(t, f.activity.entries, 1)
	})

	t.Run("explicit assignee", func(t *testing.T) {
		f := newTaskServiceFixture(project, assignee)

		task, err := f.svc.Create(context.Background(), 1, 10, &models.CreateTaskRequest{
			Title:      "Review PR",
			AssigneeID: 2,
			Status:     models.TaskStatusInProgress,
			Priority:   models.TaskPriorityHigh,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, task.AssigneeID)
		assert.Equal(t, models.TaskStatusInProgress, task.Status)
		assert.Equal(t, models.TaskPriorityHigh, task.Priority)
	})

	t.Run("unknown assignee", func(t *testing.T) {
		logger, _ := zap.NewDevelopment()
		f := newTaskServiceFixture(project, assignee)
		f.svc = NewTaskService(
			f.taskRepo,
			&mockProjectFinder{project: project},
			&mockUserRepository{getErr: apperrors.ErrNotFound},
			f.attachments, f.activity, f.audit, f.notifier, f.store,
			logger,
		)

		_, err := f.svc.Create(context.Background(), 1, 10, &models.CreateTaskRequest{
			Title:      "Review PR",
			AssigneeID: 99,
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("empty title", func(t *testing.T) {
		f := newTaskServiceFixture(project, assignee)

		_, err := f.svc.Create(context.Background(), 1, 10, &models.CreateTaskRequest{Title: "   "})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestTaskService_Update(t *testing.T) {
	project := &models.Project{ID: 10, Name: "board", OwnerID: 1}
	user := &models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}

	seed := func(f *taskServiceFixture) *models.Task {
		task, err := f.svc.Create(context.Background(), 2, 10, &models.CreateTaskRequest{
			Title:       "Initial",
			Description: "old description",
		})
		require.NoError(t, err)
		return task
	}

	t.Run("title change notifies the project owner", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		updated, err := f.svc.Update(context.Background(), 2, 10, task.ID, &models.UpdateTaskRequest{
			Title:       "Renamed",
			Description: "old description",
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)

		require.Len(t, f.notifier.notified, 1)
		assert.Equal(t, project.OwnerID, f.notifier.notified[0].UserID)
		assert.Equal(t, models.NotificationTaskUpdate, f.notifier.notified[0].Type)
		assert.Contains(t, f.notifier.notified[0].Message, "title")
	})

	t.Run("status-only change does not notify", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		_, err := f.svc.Update(context.Background(), 2, 10, task.ID, &models.UpdateTaskRequest{
			Title:       task.Title,
			Description: task.Description,
			Status:      models.TaskStatusDone,
		})
		require.NoError(t, err)
		assert.Empty(t, f.notifier.notified)
	})

	t.Run("audit snapshots before and after", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		_, err := f.svc.Update(context.Background(), 2, 10, task.ID, &models.UpdateTaskRequest{
			Title:       "Renamed",
			Description: "new description",
		})
		require.NoError(t, err)

		require.Len(t, f.audit.entries, 2) // CREATE then UPDATE
		entry := f.audit.entries[1]
		assert.Equal(t, "UPDATE", entry.Action)
		assert.Contains(t, entry.OldData, "Initial")
		assert.Contains(t, entry.NewData, "Renamed")
	})

	t.Run("task outside the project", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		_, err := f.svc.Update(context.Background(), 2, 999, task.ID, &models.UpdateTaskRequest{Title: "X"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestTaskService_Delete(t *testing.T) {
	project := &models.Project{ID: 10, Name: "board", OwnerID: 1}
	user := &models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}

	t.Run("notifies the assignee and audits", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task, err := f.svc.Create(context.Background(), 2, 10, &models.CreateTaskRequest{
			Title:      "Doomed",
			AssigneeID: 2,
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(context.Background(), 1, 10, task.ID))

		_, err = f.taskRepo.GetByID(context.Background(), task.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		require.Len(t, f.notifier.notified, 1)
		assert.Equal(t, 2, f.notifier.notified[0].UserID)
		assert.Equal(t, models.NotificationTaskDelete, f.notifier.notified[0].Type)

		require.Len(t, f.audit.entries, 2) // CREATE then DELETE
		assert.Equal(t, "DELETE", f.audit.entries[1].Action)
		assert.NotEmpty(t, f.audit.entries[1].OldData)
		assert.Empty(t, f.audit.entries[1].NewData)
	})

	t.Run("removes stored attachment files", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task, err := f.svc.Create(context.Background(), 2, 10, &models.CreateTaskRequest{
			Title:      "With files",
			AssigneeID: 2,
		})
		require.NoError(t, err)

		_, err = f.svc.Attach(context.Background(), 2, 10, task.ID,
			"report.pdf", "application/pdf", 42, strings.NewReader("data"))
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(context.Background(), 1, 10, task.ID))
		assert.Equal(t, []string{"uploads/report.pdf"}, f.store.removed)
	})

	t.Run("unknown task", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)

		err := f.svc.Delete(context.Background(), 1, 10, 404)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestTaskService_Attach(t *testing.T) {
	project := &models.Project{ID: 10, Name: "board", OwnerID: 1}
	user := &models.User{ID: 2, Name: "Bob", Email: "bob@example.com"}

	seed := func(f *taskServiceFixture) *models.Task {
		task, err := f.svc.Create(context.Background(), 2, 10, &models.CreateTaskRequest{
			Title:      "With files",
			AssigneeID: 2,
		})
		require.NoError(t, err)
		return task
	}

	t.Run("assignee may attach", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		attachment, err := f.svc.Attach(context.Background(), 2, 10, task.ID,
			"report.pdf", "application/pdf", 42, strings.NewReader("data"))
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", attachment.Filename)
		assert.Equal(t, "uploads/report.pdf", attachment.StorageKey)
		assert.Len(t, f.attachments.attachments, 1)
	})

	t.Run("project owner may attach", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		_, err := f.svc.Attach(context.Background(), 1, 10, task.ID,
			"notes.txt", "text/plain", 5, strings.NewReader("notes"))
		assert.NoError(t, err)
	})

	t.Run("anyone else is forbidden", func(t *testing.T) {
		f := newTaskServiceFixture(project, user)
		task := seed(f)

		_, err := f.svc.Attach(context.Background(), 99, 10, task.ID,
			"sneaky.txt", "text/plain", 5, strings.NewReader("x"))
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Empty(t, f.store.saved)
	})
}
