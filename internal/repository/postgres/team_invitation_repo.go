package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"teamtasks/internal/domain"
)

type teamInvitationRepository struct {
	DB *sql.DB
}

func NewTeamInvitationRepository(db *sql.DB) domain.TeamInvitationRepository {
	return &teamInvitationRepository{
		DB: db,
	}
}

func (r *teamInvitationRepository) Create(ctx context.Context, inv *domain.TeamInvitation) error {
	query := `
		INSERT INTO team_invitations (team_id, email, invited_by, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, inv.TeamID, inv.Email, inv.InvitedBy, inv.Status).
		Scan(&inv.ID, &inv.CreatedAt)
}

func (r *teamInvitationRepository) GetByID(ctx context.Context, id string) (*domain.TeamInvitation, error) {
	query := `
		SELECT id, team_id, email, invited_by, status, created_at
		FROM team_invitations
		WHERE id = $1
	`
	inv := &domain.TeamInvitation{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&inv.ID, &inv.TeamID, &inv.Email, &inv.InvitedBy, &inv.Status, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *teamInvitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]*domain.PendingInvitation, error) {
	query := `
		SELECT i.id, i.team_id, t.name, i.invited_by, i.created_at
		FROM team_invitations i
		JOIN teams t ON t.id = i.team_id
		WHERE i.email = $1 AND i.status = 'pending'
		ORDER BY i.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invs := make([]*domain.PendingInvitation, 0)
	for rows.Next() {
		inv := &domain.PendingInvitation{}
		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.TeamName, &inv.InvitedBy, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

// UpdateStatus transitions a pending invitation to the given status. The
// status guard in the WHERE clause is what keeps transitions monotonic: a
// terminal invitation matches zero rows and the call fails with
// ErrInvitationClosed.
func (r *teamInvitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE team_invitations
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`
	result, err := r.DB.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvitationClosed
	}
	return nil
}

// AcceptWithMembership updates the invitation status to accepted and inserts
// the member row in one transaction. Used when atomic accepts are enabled.
func (r *teamInvitationRepository) AcceptWithMembership(ctx context.Context, id, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE team_invitations
		SET status = 'accepted'
		WHERE id = $1 AND status = 'pending'
		RETURNING team_id
	`
	var teamID string
	if err := tx.QueryRowContext(ctx, updateQuery, id).Scan(&teamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInvitationClosed
		}
		return err
	}

	insertQuery := `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.ExecContext(ctx, insertQuery, teamID, userID, domain.RoleMember); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyMember
		}
		return err
	}

	return tx.Commit()
}
