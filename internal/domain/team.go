package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across team and invitation operations.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrAlreadyMember = errors.New("already a team member")
)

// Role of a user within a team. Exactly two roles exist.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Team represents a group of users sharing a task scope.
// swagger:model Team
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsOwner reports whether userID is the team owner. OwnerID is set at
// creation and never changes.
func (t *Team) IsOwner(userID string) bool {
	return t.OwnerID == userID
}

// NewTeam returns a new Team. ID and CreatedAt are set by the repository on create.
func NewTeam(name string, description *string, ownerID string) *Team {
	return &Team{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}
}

// TeamMember represents a user's membership in a team. At most one row
// exists per (team_id, user_id) pair.
// swagger:model TeamMember
type TeamMember struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamRepository defines the interface for team storage.
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	ListByUserID(ctx context.Context, userID string) ([]*Team, error)
}

// TeamMemberRepository defines the interface for team membership storage.
// Add returns ErrAlreadyMember when the (team_id, user_id) pair already exists.
type TeamMemberRepository interface {
	Add(ctx context.Context, teamID, userID, role string) error
	Exists(ctx context.Context, teamID, userID string) (bool, error)
	ListByTeamID(ctx context.Context, teamID string) ([]*TeamMember, error)
}

// TeamService defines the business logic for teams and task scope resolution.
type TeamService interface {
	CreateTeam(ctx context.Context, name string, description *string, ownerID string) (*Team, error)
	GetTeam(ctx context.Context, teamID, callerID string) (*Team, error)
	ListTeamsForUser(ctx context.Context, userID string) ([]*Team, error)
	ListTeamMembers(ctx context.Context, teamID, callerID string) ([]*TeamMember, error)
	ResolveScope(ctx context.Context, userID string, teamID *string) (*string, error)
}
