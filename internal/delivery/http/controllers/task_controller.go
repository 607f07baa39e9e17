package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"teamtasks/internal/delivery/http/helpers"
	"teamtasks/internal/delivery/http/middleware"
	"teamtasks/internal/domain"
)

// CreateTaskRequest is the request body for POST /tasks. team_id nil means a
// personal task.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
	TeamID      *string    `json:"team_id"`
}

// Validate implements Validator.
func (c CreateTaskRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.Priority != "" && c.Priority != domain.PriorityLow && c.Priority != domain.PriorityMedium && c.Priority != domain.PriorityHigh {
		errs = append(errs, "priority must be \"low\", \"medium\", or \"high\"")
	}
	if c.TeamID != nil && !uuidRegex.MatchString(*c.TeamID) {
		errs = append(errs, "team_id must be a UUID")
	}
	return errs
}

// UpdateTaskRequest is the request body for PATCH /tasks/{taskID}. All fields
// optional; omitted fields are unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Category    *string    `json:"category"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate implements Validator.
func (u UpdateTaskRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Priority != nil && *u.Priority != domain.PriorityLow && *u.Priority != domain.PriorityMedium && *u.Priority != domain.PriorityHigh {
		errs = append(errs, "priority must be \"low\", \"medium\", or \"high\"")
	}
	return errs
}

// TaskSuccessResponse is the success response envelope for single-task endpoints.
type TaskSuccessResponse struct {
	Data  *domain.Task      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListTasksResponse is the response body for GET /tasks.
type ListTasksResponse struct {
	Tasks      []*domain.Task         `json:"tasks"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListTasksSuccessResponse is the success response envelope for GET /tasks (200).
type ListTasksSuccessResponse struct {
	Data  ListTasksResponse `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type TaskController struct {
	Logger  *slog.Logger
	Service domain.TaskService
}

func NewTaskController(logger *slog.Logger, svc domain.TaskService) *TaskController {
	return &TaskController{
		Logger:  logger,
		Service: svc,
	}
}

// writeTaskError maps service errors to HTTP statuses shared by all task endpoints.
func (c *TaskController) writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "task not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
	}
}

// CreateTask godoc
// @Summary Create a task
// @Description Create a task in the personal scope (no team_id) or in a team the caller belongs to. Priority defaults to "medium", category to "General".
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTaskRequest true "Task data"
// @Success 201 {object} controllers.TaskSuccessResponse "data contains the created task"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a team member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (team)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tasks [post]
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	task, err := c.Service.CreateTask(r.Context(), id.UserID, req.TeamID, strings.TrimSpace(req.Title), req.Description, req.Priority, req.Category, req.DueDate)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "team not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not a member of the team")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, task)
}

// ListTasks godoc
// @Summary List tasks in a scope
// @Description Lists tasks in the personal scope or, with team_id, a team the caller belongs to. Supports status filter (all, active, completed, high-priority), case-insensitive search over title, description, and category, and pagination.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param team_id query string false "Team ID (UUID); omit for personal tasks"
// @Param status query string false "Status filter" Enums(all, active, completed, high-priority)
// @Param search query string false "Search text"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListTasksSuccessResponse "data contains tasks and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a team member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (team)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tasks [get]
func (c *TaskController) ListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var teamID *string
	if s := r.URL.Query().Get("team_id"); s != "" {
		if !uuidRegex.MatchString(s) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid team_id")
			return
		}
		teamID = &s
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "", domain.TaskFilterAll, domain.TaskFilterActive, domain.TaskFilterCompleted, domain.TaskFilterHighPriority:
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid status filter")
		return
	}
	params := helpers.ParsePagination(r)

	tasks, total, err := c.Service.ListTasks(r.Context(), id.UserID, teamID, status, r.URL.Query().Get("search"), params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "team not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not a member of the team")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListTasksResponse{
		Tasks: tasks,
		Pagination: helpers.PaginationMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

// UpdateTask godoc
// @Summary Update a task
// @Description Updates task fields. Omitted fields are unchanged. The caller must be able to see the task: its creator for personal tasks, any team member for team tasks.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskID path string true "Task ID (UUID)"
// @Param body body UpdateTaskRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.TaskSuccessResponse "data contains the updated task"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tasks/{taskID} [patch]
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	if !uuidRegex.MatchString(taskID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid taskID")
		return
	}
	var req UpdateTaskRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	task, err := c.Service.UpdateTask(r.Context(), taskID, id.UserID, domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	if err != nil {
		c.writeTaskError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, task)
}

// ToggleTask godoc
// @Summary Toggle a task's completion
// @Description Flips the task's completed flag. Same visibility rules as update.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskID path string true "Task ID (UUID)"
// @Success 200 {object} controllers.TaskSuccessResponse "data contains the updated task"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tasks/{taskID}/toggle [post]
func (c *TaskController) ToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	if !uuidRegex.MatchString(taskID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid taskID")
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	task, err := c.Service.ToggleTask(r.Context(), taskID, id.UserID)
	if err != nil {
		c.writeTaskError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Description Deletes the task. Same visibility rules as update.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskID path string true "Task ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the deleted task id"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tasks/{taskID} [delete]
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskID")
	if !uuidRegex.MatchString(taskID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid taskID")
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.DeleteTask(r.Context(), taskID, id.UserID); err != nil {
		c.writeTaskError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"id": taskID})
}
