package repository

import (
	"context"
	"sync"

	"todo-alarm/internal/model"
)

// MemoryTaskRepository keeps tasks in process memory with the same semantics as TaskRepository.
type MemoryTaskRepository struct {
	mu     sync.Mutex
	nextID uint
	tasks  []model.Task
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{nextID: 1}
}

func (r *MemoryTaskRepository) Add(_ context.Context, name, dueDate, alarmTime string) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.tasks = append(r.tasks, model.Task{ID: id, Name: name, DueDate: dueDate, AlarmTime: alarmTime})
	return id, nil
}

func (r *MemoryTaskRepository) UpdateName(_ context.Context, id uint, name string) error {
	return r.mutate(id, func(t *model.Task) { t.Name = name })
}

func (r *MemoryTaskRepository) UpdateDueDate(_ context.Context, id uint, dueDate string) error {
	return r.mutate(id, func(t *model.Task) { t.DueDate = dueDate })
}

func (r *MemoryTaskRepository) UpdateAlarmTime(_ context.Context, id uint, alarmTime string) error {
	return r.mutate(id, func(t *model.Task) { t.AlarmTime = alarmTime })
}

func (r *MemoryTaskRepository) SetAcknowledged(_ context.Context, id uint, value bool) error {
	return r.mutate(id, func(t *model.Task) { t.Acknowledged = value })
}

func (r *MemoryTaskRepository) mutate(id uint, fn func(*model.Task)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			fn(&r.tasks[i])
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryTaskRepository) ListAll(_ context.Context) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

func (r *MemoryTaskRepository) FindByID(_ context.Context, id uint) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.ID == id {
			task := t
			return &task, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTaskRepository) GetAcknowledged(ctx context.Context, id uint) (bool, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return task.Acknowledged, nil
}
