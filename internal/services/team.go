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

type teamService struct {
	teamRepo       domain.TeamRepository
	teamMemberRepo domain.TeamMemberRepository
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewTeamService(teamRepo domain.TeamRepository, teamMemberRepo domain.TeamMemberRepository, logger *slog.Logger, timeout time.Duration) domain.TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		teamMemberRepo: teamMemberRepo,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, name string, description *string, ownerID string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}

	team := domain.NewTeam(name, description, ownerID)
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}

	// The owner membership is best-effort: a failure leaves the team usable
	// through the owner_id column and is logged rather than returned.
	if err := s.teamMemberRepo.Add(ctx, team.ID, ownerID, domain.RoleOwner); err != nil {
		s.logger.ErrorContext(ctx, "owner membership insert failed",
			"team_id", team.ID, "owner_id", ownerID, "err", err)
	}

	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID, callerID string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	member, err := s.isMember(ctx, team, callerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrForbidden
	}
	return team, nil
}

func (s *teamService) ListTeamsForUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	teams, err := s.teamRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	if teams == nil {
		teams = []*domain.Team{}
	}
	return teams, nil
}

func (s *teamService) ListTeamMembers(ctx context.Context, teamID, callerID string) ([]*domain.TeamMember, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	if !team.IsOwner(callerID) {
		return nil, domain.ErrForbidden
	}
	members, err := s.teamMemberRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	if members == nil {
		members = []*domain.TeamMember{}
	}
	return members, nil
}

// ResolveScope validates the requested task scope for a user. A nil teamID
// is the personal scope and always resolves; a team scope requires the user
// to belong to that team.
func (s *teamService) ResolveScope(ctx context.Context, userID string, teamID *string) (*string, error) {
	if teamID == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	team, err := s.teamRepo.GetByID(ctx, *teamID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	member, err := s.isMember(ctx, team, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrForbidden
	}
	return teamID, nil
}

// isMember treats the owner as a member even when the best-effort owner
// membership row is missing.
func (s *teamService) isMember(ctx context.Context, team *domain.Team, userID string) (bool, error) {
	if team.IsOwner(userID) {
		return true, nil
	}
	exists, err := s.teamMemberRepo.Exists(ctx, team.ID, userID)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}
