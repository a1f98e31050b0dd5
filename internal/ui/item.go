package ui

import (
	"fmt"
	"time"

	"todo-alarm/internal/model"
)

// TaskItem wraps model.Task to satisfy the list.DefaultItem interface.
type TaskItem struct {
	Task model.Task
	Now  time.Time
}

func (i TaskItem) Title() string {
	mark := "  "
	switch i.Task.Status(i.Now) {
	case model.StatusDue:
		mark = dueStyle.Render("⏰") + " "
	case model.StatusAcknowledgedToday:
		mark = ackStyle.Render("✔") + " "
	case model.StatusDone:
		mark = statusStyle.Render("✔") + " "
	}
	name := i.Task.Name
	switch i.Task.Status(i.Now) {
	case model.StatusDue:
		name = dueStyle.Render(name)
	case model.StatusAcknowledgedToday:
		name = ackStyle.Render(name)
	}
	return fmt.Sprintf("%s#%d %s", mark, i.Task.ID, name)
}

func (i TaskItem) Description() string {
	return fmt.Sprintf("due %s %s", i.Task.DueDate, i.Task.AlarmTime)
}

func (i TaskItem) FilterValue() string {
	return i.Task.Name
}

// ClipboardText is what the copy key puts on the clipboard.
func (i TaskItem) ClipboardText() string {
	return fmt.Sprintf("%s (due %s %s)", i.Task.Name, i.Task.DueDate, i.Task.AlarmTime)
}
