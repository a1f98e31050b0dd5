package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"todo-alarm/internal/model"
)

// TaskRepository persists tasks in SQLite through gorm.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Add inserts a new, unacknowledged task and returns its id.
func (r *TaskRepository) Add(ctx context.Context, name, dueDate, alarmTime string) (uint, error) {
	task := model.Task{Name: name, DueDate: dueDate, AlarmTime: alarmTime}
	if err := r.db.WithContext(ctx).Create(&task).Error; err != nil {
		return 0, &StorageError{Op: "create task", Err: err}
	}
	return task.ID, nil
}

func (r *TaskRepository) UpdateName(ctx context.Context, id uint, name string) error {
	return r.updateColumn(ctx, id, "task", name)
}

func (r *TaskRepository) UpdateDueDate(ctx context.Context, id uint, dueDate string) error {
	return r.updateColumn(ctx, id, "due_date", dueDate)
}

func (r *TaskRepository) UpdateAlarmTime(ctx context.Context, id uint, alarmTime string) error {
	return r.updateColumn(ctx, id, "alarm_time", alarmTime)
}

func (r *TaskRepository) SetAcknowledged(ctx context.Context, id uint, value bool) error {
	return r.updateColumn(ctx, id, "alerted", value)
}

// updateColumn writes a single column so that the other fields are never touched.
func (r *TaskRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return &StorageError{Op: "update task " + column, Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return r.existsOrNotFound(ctx, id)
	}
	return nil
}

// existsOrNotFound separates "no such row" from "row already held the value".
func (r *TaskRepository) existsOrNotFound(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return &StorageError{Op: "find task", Err: err}
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task. Deleting a missing id is a no-op.
func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Task{}, id).Error; err != nil {
		return &StorageError{Op: "delete task", Err: err}
	}
	return nil
}

// ListAll returns every task in insertion order.
func (r *TaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, &StorageError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, &StorageError{Op: "find task", Err: err}
	}
}

// GetAcknowledged returns the flag, or false when the task does not exist.
func (r *TaskRepository) GetAcknowledged(ctx context.Context, id uint) (bool, error) {
	task, err := r.FindByID(ctx, id)
	switch {
	case err == nil:
		return task.Acknowledged, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
