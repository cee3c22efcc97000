package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/middleware"
	"github.com/projectboard/backend/internal/models"
)

// maxAttachmentSize caps uploaded attachment files at 10 MiB
const maxAttachmentSize = 10 << 20

// TaskService is the interface that wraps methods for task business logic
type TaskService interface {
	// Create creates a task in a project
	//
	// "ctx" parameter is used to specify the context.
	// "userID" parameter is used to identify the creator.
	// "projectID" parameter is used to identify the project.
	// "req" parameter is used to specify the task creation request.
	//
	// If the assignee does not exist or validation fails, the error will be returned.
	Create(ctx context.Context, userID, projectID int, req *models.CreateTaskRequest) (*models.Task, error)
	// List returns all tasks in a project
	List(ctx context.Context, projectID int) ([]models.Task, error)
	// Filter returns tasks across the user's projects matching the filter
	Filter(ctx context.Context, userID int, filter *models.TaskFilter) ([]models.Task, error)
	// Update updates a task and notifies the project owner when the
	// title or description changed
	Update(ctx context.Context, userID, projectID, taskID int, req *models.UpdateTaskRequest) (*models.Task, error)
	// Delete removes a task and notifies its assignee
	Delete(ctx context.Context, userID, projectID, taskID int) error
	// Attach stores an uploaded file against a task; only the task's
	// assignee or the project owner may attach
	Attach(ctx context.Context, userID, projectID, taskID int, filename, mime string, size int64, r io.Reader) (*models.Attachment, error)
}

// TaskHandler handles task requests
type TaskHandler struct {
	BaseHandler
	taskService TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		BaseHandler: BaseHandler{Logger: logger},
		taskService: taskService,
	}
}

// RegisterRoutes registers task routes. The cross-project filter route
// sits outside the project group; everything else is nested under the
// project and gated by guard.
func (h *TaskHandler) RegisterRoutes(r chi.Router, guard RoleGuard) {
	r.Get("/tasks/filter", h.Filter)

	r.Route("/projects/{projectId}/tasks", func(r chi.Router) {
		r.With(guard(models.ProjectRoleAdmin, models.ProjectRoleManager)).Post("/", h.Create)
		r.With(guard(models.AllProjectRoles...)).Get("/", h.List)

		r.Route("/{taskId}", func(r chi.Router) {
			r.With(guard(models.ProjectRoleAdmin, models.ProjectRoleManager)).Put("/", h.Update)
			r.With(guard(models.ProjectRoleAdmin)).Delete("/", h.Delete)
			r.With(guard()).Post("/attachments", h.Attach)
		})
	})
}

// Create handles POST /projects/{projectId}/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projectID, err := projectIDParam(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.taskService.Create(r.Context(), principal.UserID, projectID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, task)
}

// List handles GET /projects/{projectId}/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	tasks, err := h.taskService.List(r.Context(), projectID)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, tasks)
}

// Filter handles GET /tasks/filter
func (h *TaskHandler) Filter(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := &models.TaskFilter{
		Status:   models.TaskStatus(r.URL.Query().Get("status")),
		Priority: models.TaskPriority(r.URL.Query().Get("priority")),
		Search:   r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("assigneeId"); raw != "" {
		assigneeID, err := strconv.Atoi(raw)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid assignee id")
			return
		}
		filter.AssigneeID = assigneeID
	}

	tasks, err := h.taskService.Filter(r.Context(), principal.UserID, filter)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, tasks)
}

// Update handles PUT /projects/{projectId}/tasks/{taskId}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projectID, taskID, err := taskParams(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.taskService.Update(r.Context(), principal.UserID, projectID, taskID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /projects/{projectId}/tasks/{taskId}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projectID, taskID, err := taskParams(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.taskService.Delete(r.Context(), principal.UserID, projectID, taskID); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Attach handles POST /projects/{projectId}/tasks/{taskId}/attachments
func (h *TaskHandler) Attach(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projectID, taskID, err := taskParams(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	attachment, err := h.taskService.Attach(
		r.Context(),
		principal.UserID,
		projectID,
		taskID,
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, attachment)
}

// taskParams parses the projectId and taskId URL parameters
func taskParams(r *http.Request) (projectID, taskID int, err error) {
	projectID, err = strconv.Atoi(chi.URLParam(r, "projectId"))
	if err != nil {
		return 0, 0, err
	}
	taskID, err = strconv.Atoi(chi.URLParam(r, "taskId"))
	if err != nil {
		return 0, 0, err
	}
	return projectID, taskID, nil
}
