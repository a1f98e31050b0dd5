package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"todo-alarm/internal/model"
	"todo-alarm/internal/repository"
)

// ErrEmptyName is returned when a task is created or renamed to an empty name.
var ErrEmptyName = errors.New("task name is required")

// TaskInput represents data required to create or edit a task.
type TaskInput struct {
	Name      string
	DueDate   string
	AlarmTime string
}

// Normalize trims the name and validates date and alarm time.
func (in TaskInput) Normalize() (TaskInput, error) {
	out := TaskInput{Name: strings.TrimSpace(in.Name)}
	if out.Name == "" {
		return out, ErrEmptyName
	}
	date, err := model.ParseDate(in.DueDate)
	if err != nil {
		return out, err
	}
	clock, err := model.ParseClock(in.AlarmTime)
	if err != nil {
		return out, err
	}
	out.DueDate = date
	out.AlarmTime = clock
	return out, nil
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store TaskStore
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	in, err := input.Normalize()
	if err != nil {
		return nil, err
	}
	id, err := s.store.Add(ctx, in.Name, in.DueDate, in.AlarmTime)
	if err != nil {
		log.Printf("[warn] create task %q: %v", in.Name, err)
		return nil, err
	}
	log.Printf("[info] task %d created: %q due %s %s", id, in.Name, in.DueDate, in.AlarmTime)
	return &model.Task{ID: id, Name: in.Name, DueDate: in.DueDate, AlarmTime: in.AlarmTime}, nil
}

// UpdateTask rewrites name, due date and alarm time one column at a time.
// Moving the due instant of an acknowledged task re-arms its alarm.
// A missing task is logged and skipped.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, input TaskInput) error {
	in, err := input.Normalize()
	if err != nil {
		return err
	}
	current, err := s.store.FindByID(ctx, id)
	if err != nil {
		return s.ignoreNotFound("update", id, err)
	}
	rescheduled := current.DueDate != in.DueDate || current.AlarmTime != in.AlarmTime
	steps := []struct {
		field string
		apply func() error
	}{
		{"name", func() error { return s.store.UpdateName(ctx, id, in.Name) }},
		{"due date", func() error { return s.store.UpdateDueDate(ctx, id, in.DueDate) }},
		{"alarm time", func() error { return s.store.UpdateAlarmTime(ctx, id, in.AlarmTime) }},
	}
	for _, step := range steps {
		if err := step.apply(); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Printf("[info] update task %d: not found, skipped", id)
				return nil
			}
			log.Printf("[warn] update task %d %s: %v", id, step.field, err)
			return err
		}
	}
	// Deliberate: a rescheduled alarm fires again even if the old one was acknowledged.
	if rescheduled && current.Acknowledged {
		if err := s.Rearm(ctx, id); err != nil {
			return err
		}
	}
	log.Printf("[info] task %d updated", id)
	return nil
}

// RenameTask changes only the name.
func (s *TaskService) RenameTask(ctx context.Context, id uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.ignoreNotFound("rename", id, s.store.UpdateName(ctx, id, name))
}

// DeleteTask removes a task; deleting a missing task is not an error.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		log.Printf("[warn] delete task %d: %v", id, err)
		return err
	}
	log.Printf("[info] task %d deleted", id)
	return nil
}

// Acknowledge marks the alarm of a task as confirmed so it stops firing.
func (s *TaskService) Acknowledge(ctx context.Context, id uint) error {
	if err := s.store.SetAcknowledged(ctx, id, true); err != nil {
		return s.ignoreNotFound("acknowledge", id, err)
	}
	log.Printf("[info] task %d acknowledged", id)
	return nil
}

// Rearm clears the acknowledgement so the alarm can fire again.
func (s *TaskService) Rearm(ctx context.Context, id uint) error {
	return s.ignoreNotFound("rearm", id, s.store.SetAcknowledged(ctx, id, false))
}

// Defer leaves the task unacknowledged; it fires again on the next check.
func (s *TaskService) Defer(_ context.Context, id uint) {
	log.Printf("[info] task %d deferred", id)
}

func (s *TaskService) IsAcknowledged(ctx context.Context, id uint) (bool, error) {
	return s.store.GetAcknowledged(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		log.Printf("[warn] list tasks: %v", err)
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

func (s *TaskService) ignoreNotFound(op string, id uint, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		log.Printf("[info] %s task %d: not found, skipped", op, id)
		return nil
	default:
		log.Printf("[warn] %s task %d: %v", op, id, err)
		return err
	}
}
