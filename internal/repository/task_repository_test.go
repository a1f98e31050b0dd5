package repository

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	"todo-alarm/internal/model"
)

// taskStore is the method set shared by both implementations under test.
type taskStore interface {
	Add(ctx context.Context, name, dueDate, alarmTime string) (uint, error)
	UpdateName(ctx context.Context, id uint, name string) error
	UpdateDueDate(ctx context.Context, id uint, dueDate string) error
	UpdateAlarmTime(ctx context.Context, id uint, alarmTime string) error
	SetAcknowledged(ctx context.Context, id uint, value bool) error
	Delete(ctx context.Context, id uint) error
	ListAll(ctx context.Context) ([]model.Task, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	GetAcknowledged(ctx context.Context, id uint) (bool, error)
}

func newSQLiteRepo(t *testing.T) *TaskRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "todo.db")
	db, err := NewDB(path, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB failed: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewTaskRepository(db)
}

func forEachStore(t *testing.T, fn func(t *testing.T, s taskStore)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteRepo(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryTaskRepository()) })
}

func TestAddThenListAll(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		id, err := s.Add(ctx, "Pay rent", "2024-03-01", "08:00")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		tasks, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		matches := 0
		for _, task := range tasks {
			if task.ID != id {
				continue
			}
			matches++
			if task.Name != "Pay rent" || task.DueDate != "2024-03-01" || task.AlarmTime != "08:00" {
				t.Errorf("unexpected fields: %+v", task)
			}
			if task.Acknowledged {
				t.Error("new task must not be acknowledged")
			}
		}
		if matches != 1 {
			t.Errorf("expected exactly one record with id %d, got %d", id, matches)
		}
	})
}

func TestListAllKeepsInsertionOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		names := []string{"first", "second", "third"}
		for _, n := range names {
			if _, err := s.Add(ctx, n, "2024-01-01", "10:00"); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		tasks, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(tasks) != len(names) {
			t.Fatalf("expected %d tasks, got %d", len(names), len(tasks))
		}
		for i, n := range names {
			if tasks[i].Name != n {
				t.Errorf("position %d: expected %s, got %s", i, n, tasks[i].Name)
			}
		}
	})
}

func TestDeleteRemovesTaskAndIsIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		id, _ := s.Add(ctx, "Water plants", "2024-01-01", "07:30")
		keep, _ := s.Add(ctx, "Call mom", "2024-01-02", "18:00")

		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("second Delete should be a no-op, got %v", err)
		}

		tasks, _ := s.ListAll(ctx)
		for _, task := range tasks {
			if task.ID == id {
				t.Fatalf("deleted task %d still listed", id)
			}
		}
		if len(tasks) != 1 || tasks[0].ID != keep {
			t.Errorf("expected only task %d to remain, got %+v", keep, tasks)
		}
	})
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		first, _ := s.Add(ctx, "a", "2024-01-01", "07:30")
		if err := s.Delete(ctx, first); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		second, _ := s.Add(ctx, "b", "2024-01-01", "07:30")
		if second == first {
			t.Errorf("id %d reused after delete", first)
		}
	})
}

func TestSingleFieldUpdatesDoNotInterfere(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		id, _ := s.Add(ctx, "Dentist", "2024-05-10", "14:00")
		if err := s.SetAcknowledged(ctx, id, true); err != nil {
			t.Fatalf("SetAcknowledged failed: %v", err)
		}

		if err := s.UpdateName(ctx, id, "Dentist appointment"); err != nil {
			t.Fatalf("UpdateName failed: %v", err)
		}
		assertTask(t, s, id, model.Task{Name: "Dentist appointment", DueDate: "2024-05-10", AlarmTime: "14:00", Acknowledged: true})

		if err := s.UpdateDueDate(ctx, id, "2024-05-11"); err != nil {
			t.Fatalf("UpdateDueDate failed: %v", err)
		}
		assertTask(t, s, id, model.Task{Name: "Dentist appointment", DueDate: "2024-05-11", AlarmTime: "14:00", Acknowledged: true})

		if err := s.UpdateAlarmTime(ctx, id, "15:30"); err != nil {
			t.Fatalf("UpdateAlarmTime failed: %v", err)
		}
		assertTask(t, s, id, model.Task{Name: "Dentist appointment", DueDate: "2024-05-11", AlarmTime: "15:30", Acknowledged: true})
	})
}

func TestUpdateMissingTaskReturnsNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		if err := s.UpdateName(ctx, 999, "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateName: expected ErrNotFound, got %v", err)
		}
		if err := s.SetAcknowledged(ctx, 999, true); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetAcknowledged: expected ErrNotFound, got %v", err)
		}
		if _, err := s.FindByID(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindByID: expected ErrNotFound, got %v", err)
		}
	})
}

func TestUpdateWithSameValueIsNotNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		id, _ := s.Add(ctx, "same", "2024-01-01", "07:30")
		if err := s.UpdateName(ctx, id, "same"); err != nil {
			t.Errorf("expected nil for unchanged value, got %v", err)
		}
	})
}

func TestGetAcknowledged(t *testing.T) {
	forEachStore(t, func(t *testing.T, s taskStore) {
		ctx := context.Background()
		id, _ := s.Add(ctx, "Review PR", "2024-01-01", "11:00")

		got, err := s.GetAcknowledged(ctx, id)
		if err != nil || got {
			t.Fatalf("expected false/nil, got %v/%v", got, err)
		}
		if err := s.SetAcknowledged(ctx, id, true); err != nil {
			t.Fatalf("SetAcknowledged failed: %v", err)
		}
		if got, _ := s.GetAcknowledged(ctx, id); !got {
			t.Error("expected acknowledged=true")
		}
		if got, err := s.GetAcknowledged(ctx, 12345); err != nil || got {
			t.Errorf("missing task: expected false/nil, got %v/%v", got, err)
		}
	})
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	ctx := context.Background()

	db, err := NewDB(path, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	id, err := NewTaskRepository(db).Add(ctx, "Renew passport", "2024-06-01", "09:15")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.Close()

	db, err = NewDB(path, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	sqlDB, _ = db.DB()
	defer sqlDB.Close()

	task, err := NewTaskRepository(db).FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID after reopen failed: %v", err)
	}
	if task.Name != "Renew passport" {
		t.Errorf("expected persisted name, got %q", task.Name)
	}
}

func TestClosedDatabaseYieldsStorageError(t *testing.T) {
	repo := newSQLiteRepo(t)
	sqlDB, _ := repo.db.DB()
	sqlDB.Close()

	_, err := repo.Add(context.Background(), "x", "2024-01-01", "07:00")
	if !IsStorageError(err) {
		t.Errorf("expected StorageError, got %v", err)
	}
}

func assertTask(t *testing.T, s taskStore, id uint, want model.Task) {
	t.Helper()
	got, err := s.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%d) failed: %v", id, err)
	}
	want.ID = id
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, *got)
	}
}
