package taskauth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TaskService wraps the task repository with ownership checks. Every
// mutation verifies that the task belongs to the acting user before it
// touches the row.
type TaskService struct {
	repo   RepositoryManager
	logger Logger
}

func NewTaskService(repo RepositoryManager) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *TaskService) WithLogger(logger Logger) *TaskService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// CreateTask persists a new task owned by userID.
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, task *Task) (*Task, error) {
	task.UserID = userID

	created, err := s.repo.Tasks().Create(ctx, task)
	if err != nil {
		s.logger.Error("task create failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create task")
	}

	return created, nil
}

// GetTask loads a task and enforces ownership.
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*Task, error) {
	task, err := s.repo.Tasks().GetByID(ctx, taskID.String())
	if err != nil {
		if isRecordNotFound(err) {
			return nil, errors.New("task not found", errors.CategoryNotFound)
		}
		s.logger.Error("task lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load task")
	}

	if task.UserID != userID {
		return nil, errors.New("task not found", errors.CategoryNotFound)
	}

	return task, nil
}

// UpdateTask applies the given changes to a task the user owns.
func (s *TaskService) UpdateTask(ctx context.Context, userID uuid.UUID, task *Task) (*Task, error) {
	existing, err := s.GetTask(ctx, userID, task.ID)
	if err != nil {
		return nil, err
	}

	task.UserID = existing.UserID
	task.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Tasks().Update(ctx, task)
	if err != nil {
		s.logger.Error("task update failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update task")
	}

	return updated, nil
}

// DeleteTask removes a task the user owns.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if err := s.repo.Tasks().Delete(ctx, task); err != nil {
		s.logger.Error("task delete failed: %v", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete task")
	}

	return nil
}

// ListTasks returns a page of the user's tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*Task, error) {
	records, err := s.repo.Tasks().ListByUser(ctx, userID, page, perPage)
	if err != nil {
		s.logger.Error("task list failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list tasks")
	}
	return records, nil
}

// Dashboard aggregates the user's task counts.
func (s *TaskService) Dashboard(ctx context.Context, userID uuid.UUID) (*TaskSummary, error) {
	summary, err := s.repo.Tasks().Summary(ctx, userID, time.Now())
	if err != nil {
		s.logger.Error("task summary failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build task summary")
	}
	return summary, nil
}
