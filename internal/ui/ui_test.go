package ui

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"todo-alarm/internal/model"
	"todo-alarm/internal/repository"
	"todo-alarm/internal/service"
)

type countingRinger struct{ rings int }

func (r *countingRinger) Ring() error {
	r.rings++
	return nil
}

type brokenRinger struct{ rings int }

func (r *brokenRinger) Ring() error {
	r.rings++
	return errors.New("terminal closed")
}

type harness struct {
	m      Model
	store  *repository.MemoryTaskRepository
	ringer *countingRinger
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:  repository.NewMemoryTaskRepository(),
		ringer: &countingRinger{},
		now:    time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local),
	}
	due := service.NewDueService(h.store, nil)
	due.SetClock(func() time.Time { return h.now })
	h.m = NewModel(context.Background(), service.NewTaskService(h.store), due, h.ringer)
	h.m.now = func() time.Time { return h.now }
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

// send applies msg and resolves any list reload it triggers.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) reload() {
	h.send(h.m.loadTasks())
}

func (h *harness) key(s string) {
	switch s {
	case "enter":
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "tab":
		h.send(tea.KeyMsg{Type: tea.KeyTab})
	default:
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

func (h *harness) add(t *testing.T, name, date, clock string) uint {
	t.Helper()
	id, err := h.store.Add(context.Background(), name, date, clock)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	h.reload()
	return id
}

func TestAddTaskThroughForm(t *testing.T) {
	h := newHarness(t)

	h.key("a")
	if h.m.state != stateForm {
		t.Fatalf("expected form state, got %d", h.m.state)
	}
	if got := h.m.form.inputs[fieldDate].Value(); got != "2024-03-01" {
		t.Errorf("date should default to today, got %q", got)
	}
	h.key("Pay rent")
	h.m.form.inputs[fieldTime].SetValue("09:30")
	h.key("enter")

	if h.m.state != stateList {
		t.Fatalf("expected list state after save, got %d", h.m.state)
	}
	tasks, _ := h.store.ListAll(context.Background())
	if len(tasks) != 1 || tasks[0].Name != "Pay rent" || tasks[0].DueDate != "2024-03-01" || tasks[0].AlarmTime != "09:30" {
		t.Errorf("unexpected stored tasks: %+v", tasks)
	}
}

func TestEmptyNameIsRejected(t *testing.T) {
	h := newHarness(t)
	h.key("a")
	h.key("enter")

	if h.m.state != stateForm {
		t.Errorf("form should stay open on invalid input")
	}
	if !errors.Is(h.m.err, service.ErrEmptyName) {
		t.Errorf("expected ErrEmptyName, got %v", h.m.err)
	}
	if tasks, _ := h.store.ListAll(context.Background()); len(tasks) != 0 {
		t.Errorf("nothing should be stored, got %+v", tasks)
	}
}

func TestEditLooksUpTaskByID(t *testing.T) {
	h := newHarness(t)
	// The name contains the separator the list renders; editing must not care.
	id := h.add(t, "Call - Bob (due soon)", "2024-03-02", "10:00")

	h.key("e")
	if h.m.state != stateForm || h.m.form.editID != id {
		t.Fatalf("expected edit form for task %d, got state %d id %d", id, h.m.state, h.m.form.editID)
	}
	if got := h.m.form.inputs[fieldName].Value(); got != "Call - Bob (due soon)" {
		t.Errorf("unexpected name in form: %q", got)
	}
	h.m.form.inputs[fieldTime].SetValue("11:15")
	h.key("enter")

	task, _ := h.store.FindByID(context.Background(), id)
	if task.Name != "Call - Bob (due soon)" || task.DueDate != "2024-03-02" || task.AlarmTime != "11:15" {
		t.Errorf("unexpected task after edit: %+v", task)
	}
}

func TestDeleteWithConfirmation(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Throw away", "2024-03-02", "10:00")

	h.key("d")
	if h.m.state != stateConfirm {
		t.Fatalf("expected confirm state, got %d", h.m.state)
	}
	h.key("n")
	if _, err := h.store.FindByID(context.Background(), id); err != nil {
		t.Fatalf("task deleted despite cancel: %v", err)
	}

	h.key("d")
	h.key("y")
	if _, err := h.store.FindByID(context.Background(), id); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected task to be deleted, got %v", err)
	}
}

func TestDueTaskOpensAlertAndAcknowledges(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Pay rent", "2024-03-01", "08:00")
	h.add(t, "Tomorrow", "2024-03-02", "08:00")

	cmd := h.send(CheckDueMsg{})
	if h.m.state != stateAlert {
		t.Fatalf("expected alert state, got %d", h.m.state)
	}
	if cmd == nil {
		t.Error("expected follow-up commands (bell tick, reload)")
	}
	if len(h.m.alerts) != 1 || h.m.alerts[0].ID != id {
		t.Fatalf("unexpected alerts: %+v", h.m.alerts)
	}
	if h.ringer.rings != 1 {
		t.Errorf("expected the bell to ring once, got %d", h.ringer.rings)
	}
	if !strings.Contains(h.m.View(), "Pay rent") {
		t.Errorf("alert view should name the task")
	}

	// The bell repeats while the alert is open.
	h.send(bellTickMsg{seq: h.m.alertSeq})
	if h.ringer.rings != 2 {
		t.Errorf("expected a repeated ring, got %d", h.ringer.rings)
	}

	h.key("y")
	if h.m.state != stateList {
		t.Errorf("expected list state after acknowledgement")
	}
	if ack, _ := h.store.GetAcknowledged(context.Background(), id); !ack {
		t.Error("task not acknowledged in the store")
	}

	// Stale bell ticks are ignored once the alert is closed.
	h.send(bellTickMsg{seq: h.m.alertSeq})
	if h.ringer.rings != 2 {
		t.Errorf("bell rang after acknowledgement")
	}

	h.send(CheckDueMsg{})
	if h.m.state == stateAlert {
		t.Errorf("acknowledged task fired again: %+v", h.m.alerts)
	}
}

func TestDeferredTaskFiresAgain(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Stretch", "2024-03-01", "07:00")

	h.send(CheckDueMsg{})
	h.key("n")
	if h.m.state != stateList {
		t.Fatalf("expected list state after deferring")
	}
	if ack, _ := h.store.GetAcknowledged(context.Background(), id); ack {
		t.Fatal("deferring must not acknowledge")
	}

	h.now = h.now.Add(time.Minute)
	h.send(CheckDueMsg{})
	if h.m.state != stateAlert || h.m.alerts[0].ID != id || h.m.alerts[0].Attempt != 2 {
		t.Errorf("expected the task to re-fire with attempt 2, got state %d alerts %+v", h.m.state, h.m.alerts)
	}
}

func TestAlertClosesWhenAcknowledgedElsewhere(t *testing.T) {
	h := newHarness(t)
	id := h.add(t, "Remote", "2024-03-01", "07:00")

	h.send(CheckDueMsg{})
	if h.m.state != stateAlert {
		t.Fatalf("expected alert state")
	}
	if err := h.store.SetAcknowledged(context.Background(), id, true); err != nil {
		t.Fatal(err)
	}
	h.send(CheckDueMsg{})
	if h.m.state != stateList || len(h.m.alerts) != 0 {
		t.Errorf("alert should close, got state %d alerts %+v", h.m.state, h.m.alerts)
	}
}

func TestAlertWaitsForForm(t *testing.T) {
	h := newHarness(t)
	h.add(t, "Due now", "2024-03-01", "07:00")

	h.key("a")
	h.send(CheckDueMsg{})
	if h.m.state != stateForm {
		t.Fatalf("alert must not interrupt the form")
	}
	h.key("esc")
	if h.m.state != stateAlert {
		t.Errorf("queued alert should open after the form closes, got %d", h.m.state)
	}
}

func TestCopySelectedTask(t *testing.T) {
	h := newHarness(t)
	h.add(t, "Buy milk", "2024-03-02", "18:00")
	var copied string
	h.m.copyText = func(s string) error {
		copied = s
		return nil
	}

	h.key("c")
	if copied != "Buy milk (due 2024-03-02 18:00)" {
		t.Errorf("unexpected clipboard text %q", copied)
	}
	if h.m.status != "copied to clipboard" {
		t.Errorf("unexpected status %q", h.m.status)
	}
}

func TestStorageErrorShowsEmptyList(t *testing.T) {
	h := newHarness(t)
	h.add(t, "Visible", "2024-03-02", "18:00")

	h.send(errMsg{&repository.StorageError{Op: "list tasks", Err: errors.New("disk I/O error")}})
	if len(h.m.list.Items()) != 0 {
		t.Errorf("expected empty list on storage error")
	}
	if !strings.Contains(h.m.View(), "disk I/O error") {
		t.Errorf("error should be visible")
	}
}

func TestTaskItemHighlighting(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	due := TaskItem{Task: model.Task{ID: 1, Name: "due", DueDate: "2024-03-01", AlarmTime: "08:00"}, Now: now}
	pending := TaskItem{Task: model.Task{ID: 2, Name: "later", DueDate: "2024-03-02", AlarmTime: "08:00"}, Now: now}

	if !strings.Contains(due.Title(), "⏰") {
		t.Errorf("due task should carry the alarm mark: %q", due.Title())
	}
	if strings.Contains(pending.Title(), "⏰") {
		t.Errorf("pending task must not carry the alarm mark: %q", pending.Title())
	}
	if pending.Description() != "due 2024-03-02 08:00" {
		t.Errorf("unexpected description %q", pending.Description())
	}
	if pending.FilterValue() != "later" {
		t.Errorf("unexpected filter value %q", pending.FilterValue())
	}
}

func TestBellFailureIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := newHarness(t)
	ringer := &brokenRinger{}
	h.m.ringer = ringer
	h.add(t, "Pay rent", "2024-03-01", "08:00")

	h.send(CheckDueMsg{})
	h.send(bellTickMsg{seq: h.m.alertSeq})
	h.send(bellTickMsg{seq: h.m.alertSeq})

	if ringer.rings != 3 {
		t.Fatalf("expected three ring attempts, got %d", ringer.rings)
	}
	if got := strings.Count(buf.String(), "[warn] ring bell: terminal closed"); got != 1 {
		t.Errorf("expected one bell warning, got %d:\n%s", got, buf.String())
	}
}
