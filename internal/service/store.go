package service

import (
	"context"

	"todo-alarm/internal/model"
)

// TaskStore is the persistence contract the rest of the application depends on.
// repository.TaskRepository and repository.MemoryTaskRepository implement it.
type TaskStore interface {
	Add(ctx context.Context, name, dueDate, alarmTime string) (uint, error)
	UpdateName(ctx context.Context, id uint, name string) error
	UpdateDueDate(ctx context.Context, id uint, dueDate string) error
	UpdateAlarmTime(ctx context.Context, id uint, alarmTime string) error
	Delete(ctx context.Context, id uint) error
	SetAcknowledged(ctx context.Context, id uint, value bool) error
	ListAll(ctx context.Context) ([]model.Task, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	GetAcknowledged(ctx context.Context, id uint) (bool, error)
}
