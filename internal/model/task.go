package model

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used for the persisted date and alarm columns.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Task is a single to-do item with an alarm.
// Column names match the tasks table of the original todo.db file.
type Task struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"column:task"`
	DueDate      string `gorm:"column:due_date"`
	AlarmTime    string `gorm:"column:alarm_time"`
	Acknowledged bool   `gorm:"column:alerted;default:false"`
}

// Status describes how a task should be highlighted at a given moment.
type Status int

const (
	StatusPending Status = iota
	StatusDue
	StatusAcknowledgedToday
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusDue:
		return "due"
	case StatusAcknowledgedToday:
		return "acknowledged-today"
	case StatusDone:
		return "done"
	default:
		return "pending"
	}
}

// DueAt combines the due date and alarm time in loc.
func (t Task) DueAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	at, err := time.ParseInLocation(DateLayout+" "+ClockLayout, strings.TrimSpace(t.DueDate)+" "+strings.TrimSpace(t.AlarmTime), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("task %d due instant: %w", t.ID, err)
	}
	return at, nil
}

// IsDue reports whether the task is unacknowledged and now is at or past its due instant.
// The stored date and time are local wall-clock values whatever the location of now.
func (t Task) IsDue(now time.Time) bool {
	if t.Acknowledged {
		return false
	}
	at, err := t.DueAt(time.Local)
	if err != nil {
		return false
	}
	return !now.Before(at)
}

// Status classifies the task for display.
func (t Task) Status(now time.Time) Status {
	if t.Acknowledged {
		if t.DueDate == now.In(time.Local).Format(DateLayout) {
			return StatusAcknowledgedToday
		}
		return StatusDone
	}
	if t.IsDue(now) {
		return StatusDue
	}
	return StatusPending
}

// ParseDate validates a YYYY-MM-DD value and returns it in canonical form.
func ParseDate(raw string) (string, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d.Format(DateLayout), nil
}

// ParseClock validates an H:MM or HH:MM value and returns it as HH:MM.
func ParseClock(raw string) (string, error) {
	c, err := time.Parse("15:4", strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	return c.Format(ClockLayout), nil
}
