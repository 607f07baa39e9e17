package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamtasks/internal/domain"
)

type taskService struct {
	taskRepo       domain.TaskRepository
	teams          domain.TeamService
	contextTimeout time.Duration
}

func NewTaskService(taskRepo domain.TaskRepository, teams domain.TeamService, timeout time.Duration) domain.TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		teams:          teams,
		contextTimeout: timeout,
	}
}

func validPriority(p string) bool {
	return p == domain.PriorityLow || p == domain.PriorityMedium || p == domain.PriorityHigh
}

func (s *taskService) CreateTask(ctx context.Context, userID string, teamID *string, title string, description *string, priority, category string, dueDate *time.Time) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidInput
	}
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !validPriority(priority) {
		return nil, domain.ErrInvalidInput
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = domain.DefaultCategory
	}

	scope, err := s.teams.ResolveScope(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		UserID:      userID,
		TeamID:      scope,
		Title:       title,
		Description: description,
		Priority:    priority,
		Category:    category,
		DueDate:     dueDate,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, userID string, teamID *string, status, search string, params domain.PaginationParams) ([]*domain.Task, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	scope, err := s.teams.ResolveScope(ctx, userID, teamID)
	if err != nil {
		return nil, 0, err
	}
	filter := domain.TaskFilter{
		UserID: userID,
		TeamID: scope,
		Status: status,
		Search: strings.TrimSpace(search),
	}
	tasks, total, err := s.taskRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, total, nil
}

// authorize fetches the task and checks the caller may mutate it: personal
// tasks only by their creator, team tasks by any member of the team.
func (s *taskService) authorize(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task.TeamID == nil {
		if task.UserID != userID {
			return nil, domain.ErrForbidden
		}
		return task, nil
	}
	if _, err := s.teams.ResolveScope(ctx, userID, task.TeamID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, taskID, userID string, patch domain.TaskPatch) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorize(ctx, taskID, userID); err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.ErrInvalidInput
	}
	if patch.Priority != nil && !validPriority(*patch.Priority) {
		return nil, domain.ErrInvalidInput
	}
	updated, err := s.taskRepo.Update(ctx, taskID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return updated, nil
}

func (s *taskService) ToggleTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	task, err := s.authorize(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.taskRepo.SetCompleted(ctx, taskID, !task.Completed)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return updated, nil
}

func (s *taskService) DeleteTask(ctx context.Context, taskID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.authorize(ctx, taskID, userID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
