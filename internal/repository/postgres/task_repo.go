package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"teamtasks/internal/domain"
)

type taskRepository struct {
	DB *sql.DB
}

func NewTaskRepository(db *sql.DB) domain.TaskRepository {
	return &taskRepository{
		DB: db,
	}
}

const taskColumns = "id, user_id, team_id, title, description, completed, priority, category, due_date, created_at, updated_at"

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	t := &domain.Task{}
	var teamIDNull, descNull sql.NullString
	var dueNull sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &teamIDNull, &t.Title, &descNull, &t.Completed,
		&t.Priority, &t.Category, &dueNull, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if teamIDNull.Valid {
		t.TeamID = &teamIDNull.String
	}
	if descNull.Valid {
		t.Description = &descNull.String
	}
	if dueNull.Valid {
		t.DueDate = &dueNull.Time
	}
	return t, nil
}

func (r *taskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (user_id, team_id, title, description, completed, priority, category, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRowContext(ctx, query,
		t.UserID, t.TeamID, t.Title, t.Description, t.Completed, t.Priority, t.Category, t.DueDate).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)
	t, err := scanTask(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// taskWhere builds the WHERE clause for a filter. Personal scope means
// team_id IS NULL restricted to the owning user; team scope matches the
// team regardless of author.
func taskWhere(filter domain.TaskFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	n := 1
	if filter.TeamID != nil {
		clauses = append(clauses, fmt.Sprintf("team_id = $%d", n))
		args = append(args, *filter.TeamID)
		n++
	} else {
		clauses = append(clauses, "team_id IS NULL")
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", n))
		args = append(args, filter.UserID)
		n++
	}
	switch filter.Status {
	case domain.TaskFilterActive:
		clauses = append(clauses, "NOT completed")
	case domain.TaskFilterCompleted:
		clauses = append(clauses, "completed")
	case domain.TaskFilterHighPriority:
		clauses = append(clauses, "priority = 'high'")
	}
	if filter.Search != "" {
		clauses = append(clauses, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
		n++
	}
	return strings.Join(clauses, " AND "), args
}

func (r *taskRepository) List(ctx context.Context, filter domain.TaskFilter, params domain.PaginationParams) ([]*domain.Task, int, error) {
	where, args := taskWhere(filter)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE %s`, where)
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args) + 1
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, taskColumns, where, n, n+1)
	args = append(args, params.Limit(20), params.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *patch.Title)
		n++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *patch.Description)
		n++
	}
	if patch.Priority != nil {
		setClauses = append(setClauses, fmt.Sprintf("priority = $%d", n))
		args = append(args, *patch.Priority)
		n++
	}
	if patch.Category != nil {
		setClauses = append(setClauses, fmt.Sprintf("category = $%d", n))
		args = append(args, *patch.Category)
		n++
	}
	if patch.DueDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("due_date = $%d", n))
		args = append(args, *patch.DueDate)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch the current row
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE tasks SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, taskColumns)
	t, err := scanTask(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) SetCompleted(ctx context.Context, id string, completed bool) (*domain.Task, error) {
	query := fmt.Sprintf(`
		UPDATE tasks SET completed = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, taskColumns)
	t, err := scanTask(r.DB.QueryRowContext(ctx, query, id, completed))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
