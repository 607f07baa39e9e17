package postgres

import (
	"context"
	"database/sql"
	"errors"

	"teamtasks/internal/domain"
)

type teamRepository struct {
	DB *sql.DB
}

func NewTeamRepository(db *sql.DB) domain.TeamRepository {
	return &teamRepository{
		DB: db,
	}
}

func (r *teamRepository) Create(ctx context.Context, t *domain.Team) error {
	query := `
		INSERT INTO teams (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, t.Name, t.Description, t.OwnerID).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `
		SELECT id, name, description, owner_id, created_at
		FROM teams
		WHERE id = $1
	`
	t := &domain.Team{}
	var descNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.Name, &descNull, &t.OwnerID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if descNull.Valid {
		t.Description = &descNull.String
	}
	return t, nil
}

func (r *teamRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Team, error) {
	query := `
		SELECT DISTINCT t.id, t.name, t.description, t.owner_id, t.created_at
		FROM teams t
		LEFT JOIN team_members m ON m.team_id = t.id
		WHERE t.owner_id = $1 OR m.user_id = $1
		ORDER BY t.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*domain.Team, 0)
	for rows.Next() {
		t := &domain.Team{}
		var descNull sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &descNull, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if descNull.Valid {
			t.Description = &descNull.String
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
