package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"teamtasks/internal/delivery/http/helpers"
	"teamtasks/internal/delivery/http/middleware"
	"teamtasks/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// CreateTeamRequest is the request body for POST /teams.
type CreateTeamRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate implements Validator.
func (c CreateTeamRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateTeamSuccessResponse is the success response envelope for POST /teams (201).
type CreateTeamSuccessResponse struct {
	Data  *domain.Team      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListTeamsSuccessResponse is the success response envelope for GET /teams (200).
type ListTeamsSuccessResponse struct {
	Data  []*domain.Team    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListTeamMembersSuccessResponse is the success response envelope for GET /teams/{teamID}/members (200).
type ListTeamMembersSuccessResponse struct {
	Data  []*domain.TeamMember `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type TeamController struct {
	Logger  *slog.Logger
	Service domain.TeamService
}

func NewTeamController(logger *slog.Logger, svc domain.TeamService) *TeamController {
	return &TeamController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateTeam godoc
// @Summary Create a new team
// @Description Create a team owned by the authenticated user. The owner is also enrolled as a member.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTeamRequest true "Team data"
// @Success 201 {object} controllers.CreateTeamSuccessResponse "data contains the created team"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams [post]
func (c *TeamController) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	team, err := c.Service.CreateTeam(r.Context(), strings.TrimSpace(req.Name), req.Description, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, team)
}

// ListTeams godoc
// @Summary List the caller's teams
// @Description Returns all teams the authenticated user belongs to, as owner or member.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListTeamsSuccessResponse "data contains the teams"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams [get]
func (c *TeamController) ListTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	teams, err := c.Service.ListTeamsForUser(r.Context(), id.UserID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, teams)
}

// GetTeam godoc
// @Summary Get a team by ID
// @Description Returns the team. The caller must be the owner or a member.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Success 200 {object} controllers.CreateTeamSuccessResponse "data contains the team"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a member)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID} [get]
func (c *TeamController) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if !uuidRegex.MatchString(teamID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid teamID")
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	team, err := c.Service.GetTeam(r.Context(), teamID, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "team not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, team)
}

// ListTeamMembers godoc
// @Summary List team members
// @Description Returns the membership roster of a team. Only the team owner may list members.
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Success 200 {object} controllers.ListTeamMembersSuccessResponse "data contains the members"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/members [get]
func (c *TeamController) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if !uuidRegex.MatchString(teamID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid teamID")
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	members, err := c.Service.ListTeamMembers(r.Context(), teamID, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "team not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, members)
}
