package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskhub/platform/internal/core/domain"
	"github.com/taskhub/platform/internal/core/ports"
	"github.com/taskhub/platform/internal/pkg/metrics"
)

// TaskService implements ports.TaskService. Every operation is scoped to the
// numeric identity carried by the principal.
type TaskService struct {
	repo  ports.TaskRepository
	idem  ports.IdempotencyStore
	clock func() time.Time
	log   zerolog.Logger
}

func NewTaskService(repo ports.TaskRepository, idem ports.IdempotencyStore, log zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, idem: idem, clock: time.Now, log: log}
}

func (s *TaskService) List(ctx context.Context, p domain.Principal) ([]*domain.Task, error) {
	if !p.Resolved() {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListByUser(ctx, p.UserID)
}

func (s *TaskService) Get(ctx context.Context, p domain.Principal, id int64) (*domain.Task, error) {
	if !p.Resolved() {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.FindByID(ctx, id, p.UserID)
}

// Create stores a new task owned by the principal. When idempotencyKey is set
// and was already used by the same user, the earlier task is returned; while
// that earlier request is still running, Create fails with
// domain.ErrIdempotencyInProgress.
func (s *TaskService) Create(ctx context.Context, p domain.Principal, in ports.TaskInput, idempotencyKey string) (*ports.CreateTaskResult, error) {
	if !p.Resolved() {
		return nil, domain.ErrUnauthenticated
	}
	if in.Title == "" {
		return nil, fmt.Errorf("create task: %w: title is required", domain.ErrInvalidInput)
	}

	var reserved bool
	if idempotencyKey != "" && s.idem != nil {
		existing, held, err := s.claim(ctx, p.UserID, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("create task: %w", err)
		}
		if existing != nil {
			metrics.TasksCreatedTotal.WithLabelValues("true").Inc()
			return &ports.CreateTaskResult{Task: existing, Replayed: true}, nil
		}
		reserved = held
	}

	now := s.clock().UTC()
	created, err := s.repo.Create(ctx, &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		UserID:      p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", p.UserID).Msg("failed to create task")
		if reserved {
			if rerr := s.idem.Release(ctx, p.UserID, idempotencyKey); rerr != nil {
				s.log.Warn().Err(rerr).Str("idempotency_key", idempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	if reserved {
		if err := s.idem.Complete(ctx, p.UserID, idempotencyKey, created.ID); err != nil {
			s.log.Warn().Err(err).Int64("task_id", created.ID).Msg("failed to store idempotency key")
		}
	}

	metrics.TasksCreatedTotal.WithLabelValues("false").Inc()
	s.log.Info().Int64("task_id", created.ID).Int64("user_id", p.UserID).Msg("task created")
	return &ports.CreateTaskResult{Task: created}, nil
}

// claim reserves key for this create. It returns the earlier task when the
// key was already completed, or reserved=true when the caller now holds the
// key. Store errors are logged and the request proceeds as an unkeyed create.
func (s *TaskService) claim(ctx context.Context, userID int64, key string) (existing *domain.Task, reserved bool, err error) {
	taskID, reserved, err := s.idem.Reserve(ctx, userID, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if taskID == 0 {
		return nil, false, domain.ErrIdempotencyInProgress
	}

	existing, err = s.repo.FindByID(ctx, taskID, userID)
	if err != nil {
		// The task was deleted since; take the key over for a fresh create.
		if !errors.Is(err, domain.ErrTaskNotFound) {
			s.log.Warn().Err(err).Int64("task_id", taskID).Msg("idempotent replay lookup failed")
		}
		return nil, true, nil
	}
	s.log.Info().Str("idempotency_key", key).Int64("task_id", taskID).Msg("idempotent replay")
	return existing, false, nil
}

func (s *TaskService) Update(ctx context.Context, p domain.Principal, id int64, in ports.TaskInput) (*domain.Task, error) {
	if !p.Resolved() {
		return nil, domain.ErrUnauthenticated
	}
	if in.Title == "" {
		return nil, fmt.Errorf("update task: %w: title is required", domain.ErrInvalidInput)
	}

	current, err := s.repo.FindByID(ctx, id, p.UserID)
	if err != nil {
		return nil, err
	}
	current.Title = in.Title
	current.Description = in.Description
	current.Completed = in.Completed
	current.UpdatedAt = s.clock().UTC()

	return s.repo.Update(ctx, current)
}

func (s *TaskService) Delete(ctx context.Context, p domain.Principal, id int64) error {
	if !p.Resolved() {
		return domain.ErrUnauthenticated
	}
	if err := s.repo.Delete(ctx, id, p.UserID); err != nil {
		return err
	}
	s.log.Info().Int64("task_id", id).Int64("user_id", p.UserID).Msg("task deleted")
	return nil
}
