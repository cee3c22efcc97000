package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/projectboard/backend/internal/middleware"
	"github.com/projectboard/backend/internal/models"
)

// RoleGuard builds a middleware that admits only callers holding one of
// the required project roles (or project ownership)
type RoleGuard func(required ...models.ProjectRole) func(http.Handler) http.Handler

// ProjectService is the interface that wraps methods for project business logic
type ProjectService interface {
	// Create creates a project with the caller as owner and the listed
	// extra members, all in one transaction
	//
	// "ctx" parameter is used to specify the context.
	// "userID" parameter is used to identify the project owner.
	// "req" parameter is used to specify the project creation request.
	//
	// If validation fails or a listed member does not exist, the error will be returned.
	Create(ctx context.Context, userID int, req *models.ProjectRequest) (*models.Project, error)
	// List returns the projects the user owns or is a member of
	List(ctx context.Context, userID int) ([]models.Project, error)
	// Update renames a project
	Update(ctx context.Context, projectID int, req *models.ProjectRequest) (*models.Project, error)
	// Delete removes a project; only the owner may do this
	Delete(ctx context.Context, userID, projectID int) error
	// AddMember grants a user a role in the project
	AddMember(ctx context.Context, callerID, projectID int, req *models.MemberRequest) error
	// Activity returns the project's activity log, newest first
	Activity(ctx context.Context, projectID int) ([]models.ActivityEntry, error)
}

// ProjectHandler handles project requests
type ProjectHandler struct {
	BaseHandler
	projectService ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		projectService: projectService,
	}
}

// RegisterRoutes registers project routes. All routes require
// authentication; per-project routes are additionally gated by guard.
func (h *ProjectHandler) RegisterRoutes(r chi.Router, guard RoleGuard) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)

		r.Route("/{projectId}", func(r chi.Router) {
			r.With(guard(models.ProjectRoleAdmin, models.ProjectRoleManager)).Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.With(guard(models.ProjectRoleAdmin)).Post("/members", h.AddMember)
			r.With(guard(models.AllProjectRoles...)).Get("/activity", h.Activity)
		})
	})
}

// Create handles POST /projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.projectService.Create(r.Context(), principal.UserID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, project)
}

// List handles GET /projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projects, err := h.projectService.List(r.Context(), principal.UserID)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, projects)
}

// Update handles PUT /projects/{projectId}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req models.ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := h.projectService.Update(r.Context(), projectID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, project)
}

// Delete handles DELETE /projects/{projectId}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.projectService.Delete(r.Context(), principal.UserID, projectID); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /projects/{projectId}/members
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
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

	var req models.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.projectService.AddMember(r.Context(), principal.UserID, projectID, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, map[string]string{"message": "member added"})
}

// Activity handles GET /projects/{projectId}/activity
func (h *ProjectHandler) Activity(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDParam(r)
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	entries, err := h.projectService.Activity(r.Context(), projectID)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, entries)
}

// projectIDParam parses the projectId URL parameter
func projectIDParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "projectId"))
}
