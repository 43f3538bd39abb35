package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
	"github.com/Ayala-Braverman/practicod3-1/internal/storage"
)

// TaskStore is the persistence the task service needs. Every method is
// scoped to the owning user.
type TaskStore interface {
	TaskList(ctx context.Context, userID int64) ([]model.Task, error)
	TaskGet(ctx context.Context, userID, id int64) (*model.Task, error)
	TaskAdd(ctx context.Context, userID int64, name string) (*model.Task, error)
	TaskUpdate(ctx context.Context, userID, id int64, name *string, isComplete bool) error
	TaskDelete(ctx context.Context, userID, id int64) error
}

// TaskService performs task CRUD for an authenticated user. The userID
// argument always comes from a verified token.
type TaskService struct {
	tasks  TaskStore
	logger *slog.Logger
}

// NewTaskService creates a TaskService
func NewTaskService(tasks TaskStore, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{tasks: tasks, logger: logger}
}

// List returns the caller's tasks.
func (s *TaskService) List(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.tasks.TaskList(ctx, userID)
}

// Get returns one of the caller's tasks.
func (s *TaskService) Get(ctx context.Context, userID, id int64) (*model.Task, error) {
	task, err := s.tasks.TaskGet(ctx, userID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// Create adds an incomplete task owned by the caller.
func (s *TaskService) Create(ctx context.Context, userID int64, name string) (*model.Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	task, err := s.tasks.TaskAdd(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Task created", "user_id", userID, "task_id", task.ID)
	return task, nil
}

// Update sets isComplete and, when name is non-blank, renames the task.
func (s *TaskService) Update(ctx context.Context, userID, id int64, name *string, isComplete bool) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		name = nil
	}
	return notFound(s.tasks.TaskUpdate(ctx, userID, id, name, isComplete))
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	return notFound(s.tasks.TaskDelete(ctx, userID, id))
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
