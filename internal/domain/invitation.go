package domain

import (
	"context"
	"errors"
	"time"
)

// Invitation statuses. Transitions are monotonic: a pending invitation moves
// to accepted or declined exactly once; both are terminal.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// ErrInvitationClosed is returned when accepting or declining an invitation
// that is no longer pending.
var ErrInvitationClosed = errors.New("invitation already accepted or declined")

// TeamInvitation represents an invitation for an email address to join a
// team. The invitee is addressed by email, not user id: the target may not
// have an account yet when the invitation is sent.
// swagger:model TeamInvitation
type TeamInvitation struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	Email     string    `json:"email"`
	InvitedBy string    `json:"invited_by"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingInvitation is a pending invitation joined with its team name for display.
// swagger:model PendingInvitation
type PendingInvitation struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	InvitedBy string    `json:"invited_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamInvitationRepository defines storage operations for team invitations.
//
// UpdateStatus only transitions rows that are still pending and returns
// ErrInvitationClosed otherwise, which is what makes the status monotonic.
// AcceptWithMembership performs the status update and the member insert in a
// single transaction, for deployments that opt into atomic accepts.
type TeamInvitationRepository interface {
	Create(ctx context.Context, inv *TeamInvitation) error
	GetByID(ctx context.Context, id string) (*TeamInvitation, error)
	ListPendingByEmail(ctx context.Context, email string) ([]*PendingInvitation, error)
	UpdateStatus(ctx context.Context, id, status string) error
	AcceptWithMembership(ctx context.Context, id, userID string) error
}

// InvitationService defines the invitation lifecycle: send, list pending,
// accept (which creates the membership), and decline.
type InvitationService interface {
	Send(ctx context.Context, teamID, inviteeEmail, inviterID string) (*TeamInvitation, error)
	ListPending(ctx context.Context, recipientEmail string) ([]*PendingInvitation, error)
	Accept(ctx context.Context, invitationID, userID, userEmail string) error
	Decline(ctx context.Context, invitationID, userID, userEmail string) error
}
