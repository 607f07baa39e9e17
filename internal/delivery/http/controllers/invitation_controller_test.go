package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"teamtasks/internal/delivery/http/helpers"
	"teamtasks/internal/delivery/http/middleware"
	"teamtasks/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTeamID       = "11111111-1111-1111-1111-111111111111"
	testInvitationID = "22222222-2222-2222-2222-222222222222"
)

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	sendErr           error
	sendResult        *domain.TeamInvitation
	listPendingErr    error
	listPendingResult []*domain.PendingInvitation
	acceptErr         error
	declineErr        error

	lastSendTeamID    string
	lastSendEmail     string
	lastSendInviterID string
	lastListEmail     string
	lastInvitationID  string
	lastUserID        string
	lastUserEmail     string
}

func (f *fakeInvitationService) Send(ctx context.Context, teamID, inviteeEmail, inviterID string) (*domain.TeamInvitation, error) {
	f.lastSendTeamID = teamID
	f.lastSendEmail = inviteeEmail
	f.lastSendInviterID = inviterID
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendResult, nil
}

func (f *fakeInvitationService) ListPending(ctx context.Context, recipientEmail string) ([]*domain.PendingInvitation, error) {
	f.lastListEmail = recipientEmail
	if f.listPendingErr != nil {
		return nil, f.listPendingErr
	}
	if f.listPendingResult != nil {
		return f.listPendingResult, nil
	}
	return []*domain.PendingInvitation{}, nil
}

func (f *fakeInvitationService) Accept(ctx context.Context, invitationID, userID, userEmail string) error {
	f.lastInvitationID = invitationID
	f.lastUserID = userID
	f.lastUserEmail = userEmail
	return f.acceptErr
}

func (f *fakeInvitationService) Decline(ctx context.Context, invitationID, userID, userEmail string) error {
	f.lastInvitationID = invitationID
	f.lastUserID = userID
	f.lastUserEmail = userEmail
	return f.declineErr
}

func withIdentity(req *http.Request, userID, email string) *http.Request {
	return req.WithContext(middleware.SetIdentity(req.Context(), middleware.Identity{UserID: userID, Email: email}))
}

func TestInvitationController_Send(t *testing.T) {
	tests := []struct {
		name           string
		teamID         string
		body           string
		fakeErr        error
		noIdentity     bool
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			teamID:     testTeamID,
			body:       `{"email":"invitee@example.com"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "invalid teamID",
			teamID:         "not-a-uuid",
			body:           `{"email":"invitee@example.com"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid teamID",
		},
		{
			name:           "missing email",
			teamID:         testTeamID,
			body:           `{}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "email is required",
		},
		{
			name:           "malformed email",
			teamID:         testTeamID,
			body:           `{"email":"not-an-email"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid email format",
		},
		{
			name:           "no identity in context",
			teamID:         testTeamID,
			body:           `{"email":"invitee@example.com"}`,
			noIdentity:     true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "team not found",
			teamID:         testTeamID,
			body:           `{"email":"invitee@example.com"}`,
			fakeErr:        domain.ErrNotFound,
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "team not found",
		},
		{
			name:           "not the owner",
			teamID:         testTeamID,
			body:           `{"email":"invitee@example.com"}`,
			fakeErr:        domain.ErrForbidden,
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "only the team owner",
		},
		{
			name:           "service error",
			teamID:         testTeamID,
			body:           `{"email":"invitee@example.com"}`,
			fakeErr:        errors.New("db error"),
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInvitationService{
				sendErr: tt.fakeErr,
				sendResult: &domain.TeamInvitation{
					ID:        testInvitationID,
					TeamID:    testTeamID,
					Email:     "invitee@example.com",
					InvitedBy: "user-123",
					Status:    domain.InvitationPending,
					CreatedAt: time.Now(),
				},
			}
			ctrl := NewInvitationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/teams/"+tt.teamID+"/invitations", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("teamID", tt.teamID)
			if !tt.noIdentity {
				req = withIdentity(req, "user-123", "owner@example.com")
			}
			rr := httptest.NewRecorder()

			ctrl.Send(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var inv domain.TeamInvitation
				require.NoError(t, json.Unmarshal(dataBytes, &inv))
				assert.Equal(t, domain.InvitationPending, inv.Status)
				assert.Equal(t, testTeamID, fake.lastSendTeamID)
				assert.Equal(t, "invitee@example.com", fake.lastSendEmail)
				assert.Equal(t, "user-123", fake.lastSendInviterID)
			} else if tt.wantBodySubstr != "" {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestInvitationController_ListPending(t *testing.T) {
	pending := []*domain.PendingInvitation{
		{ID: testInvitationID, TeamID: testTeamID, TeamName: "Design Guild", InvitedBy: "user-123", CreatedAt: time.Now()},
	}

	t.Run("returns pending invitations for the caller email", func(t *testing.T) {
		fake := &fakeInvitationService{listPendingResult: pending}
		ctrl := NewInvitationController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/invitations", nil)
		req = withIdentity(req, "user-456", "invitee@example.com")
		rr := httptest.NewRecorder()

		ctrl.ListPending(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "invitee@example.com", fake.lastListEmail)
		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		require.Nil(t, envelope.Error)
		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		var got []*domain.PendingInvitation
		require.NoError(t, json.Unmarshal(dataBytes, &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Design Guild", got[0].TeamName)
	})

	t.Run("empty list is a JSON array, not null", func(t *testing.T) {
		fake := &fakeInvitationService{}
		ctrl := NewInvitationController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/invitations", nil)
		req = withIdentity(req, "user-456", "invitee@example.com")
		rr := httptest.NewRecorder()

		ctrl.ListPending(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})

	t.Run("no identity", func(t *testing.T) {
		ctrl := NewInvitationController(testLogger, &fakeInvitationService{})
		req := httptest.NewRequest(http.MethodGet, "/invitations", nil)
		rr := httptest.NewRecorder()

		ctrl.ListPending(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("service error", func(t *testing.T) {
		ctrl := NewInvitationController(testLogger, &fakeInvitationService{listPendingErr: errors.New("db error")})
		req := httptest.NewRequest(http.MethodGet, "/invitations", nil)
		req = withIdentity(req, "user-456", "invitee@example.com")
		rr := httptest.NewRecorder()

		ctrl.ListPending(rr, req)

		require.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestInvitationController_AcceptDecline(t *testing.T) {
	tests := []struct {
		name           string
		decline        bool
		invitationID   string
		fakeErr        error
		noIdentity     bool
		wantStatus     int
		wantBodySubstr string
		wantDataStatus string
	}{
		{
			name:           "accept success",
			invitationID:   testInvitationID,
			wantStatus:     http.StatusOK,
			wantDataStatus: domain.InvitationAccepted,
		},
		{
			name:           "decline success",
			decline:        true,
			invitationID:   testInvitationID,
			wantStatus:     http.StatusOK,
			wantDataStatus: domain.InvitationDeclined,
		},
		{
			name:           "invalid invitationID",
			invitationID:   "nope",
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid invitationID",
		},
		{
			name:           "no identity",
			invitationID:   testInvitationID,
			noIdentity:     true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "not found",
			invitationID:   testInvitationID,
			fakeErr:        domain.ErrNotFound,
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "invitation not found",
		},
		{
			name:           "addressed to someone else",
			invitationID:   testInvitationID,
			fakeErr:        domain.ErrForbidden,
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "different email",
		},
		{
			name:           "already resolved",
			invitationID:   testInvitationID,
			fakeErr:        domain.ErrInvitationClosed,
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "already accepted or declined",
		},
		{
			name:           "already a member",
			invitationID:   testInvitationID,
			fakeErr:        domain.ErrAlreadyMember,
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "already a team member",
		},
		{
			name:           "decline already resolved",
			decline:        true,
			invitationID:   testInvitationID,
			fakeErr:        domain.ErrInvitationClosed,
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "already accepted or declined",
		},
		{
			name:           "service error",
			invitationID:   testInvitationID,
			fakeErr:        errors.New("db error"),
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeInvitationService{acceptErr: tt.fakeErr, declineErr: tt.fakeErr}
			ctrl := NewInvitationController(testLogger, fake)
			action := "accept"
			if tt.decline {
				action = "decline"
			}
			req := httptest.NewRequest(http.MethodPost, "/invitations/"+tt.invitationID+"/"+action, nil)
			req.SetPathValue("invitationID", tt.invitationID)
			if !tt.noIdentity {
				req = withIdentity(req, "user-456", "invitee@example.com")
			}
			rr := httptest.NewRecorder()

			if tt.decline {
				ctrl.Decline(rr, req)
			} else {
				ctrl.Accept(rr, req)
			}

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, testInvitationID, fake.lastInvitationID)
				assert.Equal(t, "user-456", fake.lastUserID)
				assert.Equal(t, "invitee@example.com", fake.lastUserEmail)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var data map[string]string
				require.NoError(t, json.Unmarshal(dataBytes, &data))
				assert.Equal(t, tt.wantDataStatus, data["status"])
			} else if tt.wantBodySubstr != "" {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}
