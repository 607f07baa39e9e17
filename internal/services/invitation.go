package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"teamtasks/internal/domain"
)

type invitationService struct {
	invitationRepo domain.TeamInvitationRepository
	teamRepo       domain.TeamRepository
	teamMemberRepo domain.TeamMemberRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	atomicAccept   bool
	contextTimeout time.Duration
}

// NewInvitationService creates the invitation lifecycle service. When
// atomicAccept is true, accepting an invitation updates the status and
// inserts the membership in a single transaction; otherwise the two steps
// run sequentially and a failed membership insert leaves the invitation
// accepted without a member row, which is surfaced as an error.
func NewInvitationService(
	invitationRepo domain.TeamInvitationRepository,
	teamRepo domain.TeamRepository,
	teamMemberRepo domain.TeamMemberRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	atomicAccept bool,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		teamMemberRepo: teamMemberRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		atomicAccept:   atomicAccept,
		contextTimeout: timeout,
	}
}

func (s *invitationService) Send(ctx context.Context, teamID, inviteeEmail, inviterID string) (*domain.TeamInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inviteeEmail = strings.TrimSpace(strings.ToLower(inviteeEmail))
	if inviteeEmail == "" {
		return nil, domain.ErrInvalidInput
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	if !team.IsOwner(inviterID) {
		return nil, domain.ErrForbidden
	}

	inviter, err := s.userRepo.GetByID(ctx, inviterID)
	if err != nil {
		return nil, fmt.Errorf("get inviter: %w", err)
	}

	// Duplicate pending invitations to the same (team, email) pair are not
	// rejected, matching the data model: an invitation addresses an email,
	// not a membership.
	inv := &domain.TeamInvitation{
		TeamID:    teamID,
		Email:     inviteeEmail,
		InvitedBy: inviter.Email,
		Status:    domain.InvitationPending,
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	inviterName := strings.TrimSpace(inviter.Name)
	if inviterName == "" {
		inviterName = inviter.Email
	}
	data := &domain.TeamInvitationEmailData{
		Email:       inviteeEmail,
		TeamName:    team.Name,
		InviterName: inviterName,
	}
	if err := s.emailService.SendTeamInvitation(ctx, data); err != nil {
		// The invitation row is the source of truth; the email is best-effort.
		s.logger.WarnContext(ctx, "invitation email failed",
			"invitation_id", inv.ID, "email", inviteeEmail, "err", err)
	}

	return inv, nil
}

func (s *invitationService) ListPending(ctx context.Context, recipientEmail string) ([]*domain.PendingInvitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	recipientEmail = strings.TrimSpace(strings.ToLower(recipientEmail))
	invs, err := s.invitationRepo.ListPendingByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	if invs == nil {
		invs = []*domain.PendingInvitation{}
	}
	return invs, nil
}

// resolve loads the invitation and checks it is addressed to the caller and
// still pending. Both Accept and Decline go through it.
func (s *invitationService) resolve(ctx context.Context, invitationID, userEmail string) (*domain.TeamInvitation, error) {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv.Email != strings.TrimSpace(strings.ToLower(userEmail)) {
		return nil, domain.ErrForbidden
	}
	if inv.Status != domain.InvitationPending {
		return nil, domain.ErrInvitationClosed
	}
	return inv, nil
}

func (s *invitationService) Accept(ctx context.Context, invitationID, userID, userEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.resolve(ctx, invitationID, userEmail)
	if err != nil {
		return err
	}

	if s.atomicAccept {
		if err := s.invitationRepo.AcceptWithMembership(ctx, inv.ID, userID); err != nil {
			if errors.Is(err, domain.ErrInvitationClosed) || errors.Is(err, domain.ErrAlreadyMember) {
				return err
			}
			return fmt.Errorf("accept invitation: %w", err)
		}
		return nil
	}

	// Two sequential steps. The membership insert only runs after the status
	// update succeeds; if it then fails, the invitation stays accepted with
	// no member row and the error is reported without compensation. The team
	// owner re-inviting is the recovery path.
	if err := s.invitationRepo.UpdateStatus(ctx, inv.ID, domain.InvitationAccepted); err != nil {
		if errors.Is(err, domain.ErrInvitationClosed) {
			return domain.ErrInvitationClosed
		}
		return fmt.Errorf("update invitation status: %w", err)
	}
	if err := s.teamMemberRepo.Add(ctx, inv.TeamID, userID, domain.RoleMember); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return domain.ErrAlreadyMember
		}
		s.logger.ErrorContext(ctx, "membership insert failed after invitation accepted",
			"invitation_id", inv.ID, "team_id", inv.TeamID, "user_id", userID, "err", err)
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *invitationService) Decline(ctx context.Context, invitationID, userID, userEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.resolve(ctx, invitationID, userEmail)
	if err != nil {
		return err
	}
	if err := s.invitationRepo.UpdateStatus(ctx, inv.ID, domain.InvitationDeclined); err != nil {
		if errors.Is(err, domain.ErrInvitationClosed) {
			return domain.ErrInvitationClosed
		}
		return fmt.Errorf("update invitation status: %w", err)
	}
	return nil
}
