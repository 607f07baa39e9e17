package domain

import (
	"context"
	"time"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DefaultCategory is assigned to tasks created without a category.
const DefaultCategory = "General"

// Task represents a single task, either personal (TeamID nil) or scoped to a team.
// swagger:model Task
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TeamID      *string    `json:"team_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task list status filters.
const (
	TaskFilterAll          = "all"
	TaskFilterActive       = "active"
	TaskFilterCompleted    = "completed"
	TaskFilterHighPriority = "high-priority"
)

// TaskFilter narrows a task listing. TeamID nil means the personal scope
// (team_id IS NULL); UserID is only applied in the personal scope, where
// tasks are private to their creator. Search matches title, description,
// and category case-insensitively.
type TaskFilter struct {
	UserID string
	TeamID *string
	Status string
	Search string
}

// TaskPatch holds optional field updates for a task. Nil fields are unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *string
	Category    *string
	DueDate     *time.Time
}

// TaskRepository defines the interface for task storage.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, filter TaskFilter, params PaginationParams) ([]*Task, int, error)
	Update(ctx context.Context, id string, patch TaskPatch) (*Task, error)
	SetCompleted(ctx context.Context, id string, completed bool) (*Task, error)
	Delete(ctx context.Context, id string) error
}

// TaskService defines the business logic for task CRUD under a resolved scope.
type TaskService interface {
	CreateTask(ctx context.Context, userID string, teamID *string, title string, description *string, priority, category string, dueDate *time.Time) (*Task, error)
	ListTasks(ctx context.Context, userID string, teamID *string, status, search string, params PaginationParams) ([]*Task, int, error)
	UpdateTask(ctx context.Context, taskID, userID string, patch TaskPatch) (*Task, error)
	ToggleTask(ctx context.Context, taskID, userID string) (*Task, error)
	DeleteTask(ctx context.Context, taskID, userID string) error
}
