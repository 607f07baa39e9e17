package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"teamtasks/internal/domain"
)

type teamMemberRepository struct {
	DB *sql.DB
}

func NewTeamMemberRepository(db *sql.DB) domain.TeamMemberRepository {
	return &teamMemberRepository{
		DB: db,
	}
}

func (r *teamMemberRepository) Add(ctx context.Context, teamID, userID, role string) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`
	_, err := r.DB.ExecContext(ctx, query, teamID, userID, role)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (r *teamMemberRepository) Exists(ctx context.Context, teamID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *teamMemberRepository) ListByTeamID(ctx context.Context, teamID string) ([]*domain.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, role, joined_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at
	`
	rows, err := r.DB.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.TeamMember, 0)
	for rows.Next() {
		m := &domain.TeamMember{}
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
