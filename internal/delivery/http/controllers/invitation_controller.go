package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"teamtasks/internal/delivery/http/helpers"
	"teamtasks/internal/delivery/http/middleware"
	"teamtasks/internal/domain"
)

// SendInvitationRequest is the request body for POST /teams/{teamID}/invitations.
type SendInvitationRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (s SendInvitationRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// SendInvitationSuccessResponse is the success response envelope for POST /teams/{teamID}/invitations (201).
type SendInvitationSuccessResponse struct {
	Data  *domain.TeamInvitation `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// ListInvitationsSuccessResponse is the success response envelope for GET /invitations (200).
type ListInvitationsSuccessResponse struct {
	Data  []*domain.PendingInvitation `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// Send godoc
// @Summary Invite an email address to a team
// @Description Creates a pending invitation addressed to the given email and notifies the invitee. Only the team owner may invite. The invitee does not need an account yet.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamID path string true "Team ID (UUID)"
// @Param body body SendInvitationRequest true "Invitee email"
// @Success 201 {object} controllers.SendInvitationSuccessResponse "data contains the created invitation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /teams/{teamID}/invitations [post]
func (c *InvitationController) Send(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamID")
	if !uuidRegex.MatchString(teamID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid teamID")
		return
	}
	var req SendInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	inv, err := c.Service.Send(r.Context(), teamID, req.Email, id.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "team not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the team owner can invite")
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
	helpers.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// ListPending godoc
// @Summary List pending invitations for the caller
// @Description Returns invitations addressed to the authenticated user's email that are still pending, newest first, with team names.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListInvitationsSuccessResponse "data contains the pending invitations"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [get]
func (c *InvitationController) ListPending(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invs, err := c.Service.ListPending(r.Context(), id.Email)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// Accept godoc
// @Summary Accept an invitation
// @Description Marks the invitation accepted and enrolls the caller as a team member. Only the addressee may accept, and only while the invitation is pending.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains status accepted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the addressee)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already accepted or declined)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID}/accept [post]
func (c *InvitationController) Accept(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, domain.InvitationAccepted, c.Service.Accept)
}

// Decline godoc
// @Summary Decline an invitation
// @Description Marks the invitation declined. No membership is created. Only the addressee may decline, and only while the invitation is pending.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains status declined"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the addressee)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already accepted or declined)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID}/decline [post]
func (c *InvitationController) Decline(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, domain.InvitationDeclined, c.Service.Decline)
}

// respond handles the shared accept/decline flow: path validation, identity,
// service call, and error-to-status mapping.
func (c *InvitationController) respond(w http.ResponseWriter, r *http.Request, status string, resolve func(ctx context.Context, invitationID, userID, userEmail string) error) {
	invitationID := r.PathValue("invitationID")
	if !uuidRegex.MatchString(invitationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid invitationID")
		return
	}
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := resolve(r.Context(), invitationID, id.UserID, id.Email); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invitation not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "invitation is addressed to a different email")
			return
		}
		if errors.Is(err, domain.ErrInvitationClosed) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invitation already accepted or declined")
			return
		}
		if errors.Is(err, domain.ErrAlreadyMember) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already a team member")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, helpers.MsgInternalError)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": status})
}
