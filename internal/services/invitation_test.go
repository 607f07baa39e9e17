package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamtasks/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeTeamRepo is an in-memory TeamRepository for tests. ListByUserID goes
// through the membership table, like the SQL join it stands in for.
type fakeTeamRepo struct {
	byID      map[string]*domain.Team
	members   *fakeTeamMemberRepo
	nextID    int
	createErr error
}

func newFakeTeamRepo(members *fakeTeamMemberRepo) *fakeTeamRepo {
	return &fakeTeamRepo{byID: make(map[string]*domain.Team), members: members, nextID: 1}
}

func (f *fakeTeamRepo) Create(ctx context.Context, t *domain.Team) error {
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = fmt.Sprintf("team-%d", f.nextID)
	f.nextID++
	t.CreatedAt = time.Now()
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	if t, ok := f.byID[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTeamRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Team, error) {
	out := make([]*domain.Team, 0)
	for _, t := range f.byID {
		if t.OwnerID == userID || f.members.find(t.ID, userID) != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeTeamMemberRepo is an in-memory TeamMemberRepository for tests.
type fakeTeamMemberRepo struct {
	members []*domain.TeamMember
	nextID  int
	addErr  error
}

func newFakeTeamMemberRepo() *fakeTeamMemberRepo {
	return &fakeTeamMemberRepo{nextID: 1}
}

func (f *fakeTeamMemberRepo) Add(ctx context.Context, teamID, userID, role string) error {
	if f.addErr != nil {
		return f.addErr
	}
	for _, m := range f.members {
		if m.TeamID == teamID && m.UserID == userID {
			return domain.ErrAlreadyMember
		}
	}
	f.members = append(f.members, &domain.TeamMember{
		ID:       fmt.Sprintf("m-%d", f.nextID),
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now(),
	})
	f.nextID++
	return nil
}

func (f *fakeTeamMemberRepo) Exists(ctx context.Context, teamID, userID string) (bool, error) {
	for _, m := range f.members {
		if m.TeamID == teamID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeamMemberRepo) ListByTeamID(ctx context.Context, teamID string) ([]*domain.TeamMember, error) {
	out := make([]*domain.TeamMember, 0)
	for _, m := range f.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeTeamMemberRepo) find(teamID, userID string) *domain.TeamMember {
	for _, m := range f.members {
		if m.TeamID == teamID && m.UserID == userID {
			return m
		}
	}
	return nil
}

// fakeInvitationRepo is an in-memory TeamInvitationRepository for tests.
type fakeInvitationRepo struct {
	byID            map[string]*domain.TeamInvitation
	teams           *fakeTeamRepo
	members         *fakeTeamMemberRepo
	nextID          int
	createErr       error
	updateStatusErr error
	createCalls     int
}

func newFakeInvitationRepo(teams *fakeTeamRepo, members *fakeTeamMemberRepo) *fakeInvitationRepo {
	return &fakeInvitationRepo{
		byID:    make(map[string]*domain.TeamInvitation),
		teams:   teams,
		members: members,
		nextID:  1,
	}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.TeamInvitation) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	inv.CreatedAt = time.Now()
	f.byID[inv.ID] = inv
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.TeamInvitation, error) {
	if inv, ok := f.byID[id]; ok {
		return inv, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) ListPendingByEmail(ctx context.Context, email string) ([]*domain.PendingInvitation, error) {
	out := make([]*domain.PendingInvitation, 0)
	for _, inv := range f.byID {
		if inv.Email != email || inv.Status != domain.InvitationPending {
			continue
		}
		teamName := ""
		if t, ok := f.teams.byID[inv.TeamID]; ok {
			teamName = t.Name
		}
		out = append(out, &domain.PendingInvitation{
			ID:        inv.ID,
			TeamID:    inv.TeamID,
			TeamName:  teamName,
			InvitedBy: inv.InvitedBy,
			CreatedAt: inv.CreatedAt,
		})
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	inv, ok := f.byID[id]
	if !ok || inv.Status != domain.InvitationPending {
		return domain.ErrInvitationClosed
	}
	inv.Status = status
	return nil
}

func (f *fakeInvitationRepo) AcceptWithMembership(ctx context.Context, id, userID string) error {
	inv, ok := f.byID[id]
	if !ok || inv.Status != domain.InvitationPending {
		return domain.ErrInvitationClosed
	}
	if f.members.find(inv.TeamID, userID) != nil {
		return domain.ErrAlreadyMember
	}
	inv.Status = domain.InvitationAccepted
	return f.members.Add(ctx, inv.TeamID, userID, domain.RoleMember)
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// fakeEmailService records sent invitation emails.
type fakeEmailService struct {
	sent    []*domain.TeamInvitationEmailData
	sendErr error
}

func (f *fakeEmailService) SendTeamInvitation(ctx context.Context, data *domain.TeamInvitationEmailData) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, data)
	return nil
}

type invitationFixture struct {
	teams   *fakeTeamRepo
	members *fakeTeamMemberRepo
	invs    *fakeInvitationRepo
	users   *fakeUserRepo
	email   *fakeEmailService
}

func newInvitationFixture() *invitationFixture {
	members := newFakeTeamMemberRepo()
	teams := newFakeTeamRepo(members)
	return &invitationFixture{
		teams:   teams,
		members: members,
		invs:    newFakeInvitationRepo(teams, members),
		users: newFakeUserRepo(
			&domain.User{ID: "user-a", Email: "alice@example.com", Name: "Alice"},
			&domain.User{ID: "user-b", Email: "bob@example.com", Name: "Bob"},
		),
		email: &fakeEmailService{},
	}
}

func (fx *invitationFixture) service(atomic bool) domain.InvitationService {
	return NewInvitationService(fx.invs, fx.teams, fx.members, fx.users, fx.email, discardLogger, atomic, 2*time.Second)
}

// seedTeam creates a team owned by user-a with its owner membership.
func (fx *invitationFixture) seedTeam(name string) *domain.Team {
	team := domain.NewTeam(name, nil, "user-a")
	_ = fx.teams.Create(context.Background(), team)
	_ = fx.members.Add(context.Background(), team.ID, "user-a", domain.RoleOwner)
	return team
}

func TestInvitationService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending invitation and sends email", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		inv, err := svc.Send(ctx, team.ID, "Bob@Example.com", "user-a")
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationPending, inv.Status)
		assert.Equal(t, "bob@example.com", inv.Email)
		assert.Equal(t, "alice@example.com", inv.InvitedBy)
		require.Len(t, fx.email.sent, 1)
		assert.Equal(t, "Design Guild", fx.email.sent[0].TeamName)
		assert.Equal(t, "Alice", fx.email.sent[0].InviterName)
	})

	t.Run("empty email fails before any repository call", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		_, err := svc.Send(ctx, team.ID, "   ", "user-a")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, fx.invs.createCalls)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		_, err := svc.Send(ctx, team.ID, "carol@example.com", "user-b")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("missing team returns ErrNotFound", func(t *testing.T) {
		fx := newInvitationFixture()
		svc := fx.service(false)

		_, err := svc.Send(ctx, "team-missing", "bob@example.com", "user-a")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("email send failure does not fail the invitation", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		fx.email.sendErr = errors.New("ses unavailable")
		svc := fx.service(false)

		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationPending, inv.Status)
	})

	t.Run("duplicate pending invitation to the same team and email is allowed", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		_, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)
		_, err = svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)

		pending, err := svc.ListPending(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Len(t, pending, 2)
	})
}

func TestInvitationService_ListPending(t *testing.T) {
	ctx := context.Background()
	fx := newInvitationFixture()
	team := fx.seedTeam("Design Guild")
	svc := fx.service(false)

	_, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
	require.NoError(t, err)
	inv2, err := svc.Send(ctx, team.ID, "carol@example.com", "user-a")
	require.NoError(t, err)
	require.NoError(t, fx.invs.UpdateStatus(ctx, inv2.ID, domain.InvitationDeclined))

	t.Run("returns only pending invitations for the queried email", func(t *testing.T) {
		pending, err := svc.ListPending(ctx, "bob@example.com")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Design Guild", pending[0].TeamName)
		assert.Equal(t, "alice@example.com", pending[0].InvitedBy)
	})

	t.Run("terminal invitations never appear", func(t *testing.T) {
		pending, err := svc.ListPending(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("unknown email yields empty slice, not error", func(t *testing.T) {
		pending, err := svc.ListPending(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestInvitationService_Accept(t *testing.T) {
	ctx := context.Background()

	t.Run("creates membership and closes the invitation", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)

		require.NoError(t, svc.Accept(ctx, inv.ID, "user-b", "bob@example.com"))

		m := fx.members.find(team.ID, "user-b")
		require.NotNil(t, m)
		assert.Equal(t, domain.RoleMember, m.Role)
		assert.Equal(t, domain.InvitationAccepted, fx.invs.byID[inv.ID].Status)

		pending, err := svc.ListPending(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("invitation addressed to another email is forbidden", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)

		err = svc.Accept(ctx, inv.ID, "user-b", "mallory@example.com")
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Nil(t, fx.members.find(team.ID, "user-b"))
	})

	t.Run("terminal invitation is rejected with ErrInvitationClosed", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)
		require.NoError(t, svc.Decline(ctx, inv.ID, "user-b", "bob@example.com"))

		err = svc.Accept(ctx, inv.ID, "user-b", "bob@example.com")
		require.ErrorIs(t, err, domain.ErrInvitationClosed)
		assert.Equal(t, domain.InvitationDeclined, fx.invs.byID[inv.ID].Status)
	})

	t.Run("membership insert failure leaves invitation accepted and reports the error", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)

		fx.members.addErr = errors.New("connection reset")
		err = svc.Accept(ctx, inv.ID, "user-b", "bob@example.com")
		require.Error(t, err)
		// The first step committed: no compensation is attempted.
		assert.Equal(t, domain.InvitationAccepted, fx.invs.byID[inv.ID].Status)
		assert.Nil(t, fx.members.find(team.ID, "user-b"))
	})

	t.Run("existing member surfaces ErrAlreadyMember", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(false)

		require.NoError(t, fx.members.Add(ctx, team.ID, "user-b", domain.RoleMember))
		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)

		err = svc.Accept(ctx, inv.ID, "user-b", "bob@example.com")
		require.ErrorIs(t, err, domain.ErrAlreadyMember)
	})

	t.Run("atomic mode rolls membership and status into one call", func(t *testing.T) {
		fx := newInvitationFixture()
		team := fx.seedTeam("Design Guild")
		svc := fx.service(true)

		inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
		require.NoError(t, err)

		require.NoError(t, svc.Accept(ctx, inv.ID, "user-b", "bob@example.com"))
		require.NotNil(t, fx.members.find(team.ID, "user-b"))
		assert.Equal(t, domain.InvitationAccepted, fx.invs.byID[inv.ID].Status)
	})
}

func TestInvitationService_Decline(t *testing.T) {
	ctx := context.Background()
	fx := newInvitationFixture()
	team := fx.seedTeam("Design Guild")
	svc := fx.service(false)

	inv, err := svc.Send(ctx, team.ID, "nobody@example.com", "user-a")
	require.NoError(t, err)

	fx.users.byID["user-n"] = &domain.User{ID: "user-n", Email: "nobody@example.com"}
	require.NoError(t, svc.Decline(ctx, inv.ID, "user-n", "nobody@example.com"))

	assert.Equal(t, domain.InvitationDeclined, fx.invs.byID[inv.ID].Status)
	assert.Nil(t, fx.members.find(team.ID, "user-n"))

	pending, err := svc.ListPending(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Declining twice hits the terminal guard.
	err = svc.Decline(ctx, inv.ID, "user-n", "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrInvitationClosed)
}

// Full scenario: user A owns "Design Guild", user B accepts an invitation and
// the team shows up in B's team list.
func TestInvitationService_AcceptJoinsTeamList(t *testing.T) {
	ctx := context.Background()
	fx := newInvitationFixture()
	team := fx.seedTeam("Design Guild")
	svc := fx.service(false)

	owner := fx.members.find(team.ID, "user-a")
	require.NotNil(t, owner)
	require.Equal(t, domain.RoleOwner, owner.Role)

	inv, err := svc.Send(ctx, team.ID, "bob@example.com", "user-a")
	require.NoError(t, err)
	require.NoError(t, svc.Accept(ctx, inv.ID, "user-b", "bob@example.com"))

	members, err := fx.members.ListByTeamID(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, fmt.Sprintf("%s:%s", m.UserID, m.Role))
	}
	assert.Equal(t, "user-a:owner user-b:member", strings.Join(names, " "))
}
