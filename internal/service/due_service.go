package service

import (
	"context"
	"log"
	"sync"
	"time"

	"todo-alarm/internal/model"
)

// DueTask is a task whose alarm has gone off and is waiting for acknowledgement.
type DueTask struct {
	ID    uint
	Name  string
	DueAt time.Time
	// Attempt is 1 on the first check that finds the task due and grows on every re-fire.
	Attempt int
}

// Notifier receives due tasks. Implementations must not block for long:
// they run on the same loop as the UI.
type Notifier interface {
	Notify(ctx context.Context, task DueTask) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, task DueTask) error

func (f NotifierFunc) Notify(ctx context.Context, task DueTask) error {
	return f(ctx, task)
}

// DueService decides which tasks have crossed their due instant and are not acknowledged yet.
type DueService struct {
	store    TaskStore
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	attempts map[uint]int
	invalid  map[uint]bool
}

func NewDueService(store TaskStore, notifier Notifier) *DueService {
	return &DueService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		attempts: make(map[uint]int),
		invalid:  make(map[uint]bool),
	}
}

// SetClock replaces the time source used by Run.
func (s *DueService) SetClock(now func() time.Time) {
	s.now = now
}

// Evaluate returns the unacknowledged tasks whose due instant is at or before now.
// Due instants are local wall-clock times; now may be in any location.
// Tasks with an unparsable date or time are returned separately.
func Evaluate(tasks []model.Task, now time.Time) (due []DueTask, invalid []model.Task) {
	for _, task := range tasks {
		if task.Acknowledged {
			continue
		}
		at, err := task.DueAt(time.Local)
		if err != nil {
			invalid = append(invalid, task)
			continue
		}
		if now.Before(at) {
			continue
		}
		due = append(due, DueTask{ID: task.ID, Name: task.Name, DueAt: at})
	}
	return due, invalid
}

// Check re-reads every task and reports the due ones. Calling it again without
// acknowledging reports the same tasks with a higher Attempt.
func (s *DueService) Check(ctx context.Context, now time.Time) ([]DueTask, error) {
	tasks, err := s.store.ListAll(ctx)
	if err != nil {
		log.Printf("[warn] due check: %v", err)
		return nil, err
	}
	due, invalid := Evaluate(tasks, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range invalid {
		if !s.invalid[task.ID] {
			log.Printf("[warn] task %d has invalid schedule %q %q, skipped", task.ID, task.DueDate, task.AlarmTime)
		}
	}
	nextInvalid := make(map[uint]bool, len(invalid))
	for _, task := range invalid {
		nextInvalid[task.ID] = true
	}
	s.invalid = nextInvalid

	next := make(map[uint]int, len(due))
	for i := range due {
		n := s.attempts[due[i].ID] + 1
		next[due[i].ID] = n
		due[i].Attempt = n
	}
	s.attempts = next
	return due, nil
}

// Run performs one tick: check at the current time and hand every due task to the notifier.
func (s *DueService) Run(ctx context.Context) ([]DueTask, error) {
	due, err := s.Check(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.notifier == nil {
		return due, nil
	}
	for _, task := range due {
		if err := s.notifier.Notify(ctx, task); err != nil {
			log.Printf("[warn] notify task %d: %v", task.ID, err)
		}
	}
	return due, nil
}
