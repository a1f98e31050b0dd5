package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todo-alarm/internal/model"
	"todo-alarm/internal/service"
)

const (
	fieldName = iota
	fieldDate
	fieldTime
	fieldCount
)

// taskForm edits the three task fields. editID is zero for a new task.
type taskForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	editID uint
}

func newTaskForm(now time.Time) taskForm {
	placeholders := [fieldCount]string{"Task name", "YYYY-MM-DD", "HH:MM"}
	limits := [fieldCount]int{256, 10, 5}

	var f taskForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		f.inputs[i] = ti
	}
	f.inputs[fieldDate].SetValue(now.Format(model.DateLayout))
	f.inputs[fieldTime].SetValue(now.Format(model.ClockLayout))
	return f
}

func editTaskForm(task model.Task) taskForm {
	f := newTaskForm(time.Now())
	f.editID = task.ID
	f.inputs[fieldName].SetValue(task.Name)
	f.inputs[fieldDate].SetValue(task.DueDate)
	f.inputs[fieldTime].SetValue(task.AlarmTime)
	return f
}

func (f *taskForm) Focus() tea.Cmd {
	return f.focusField(fieldName)
}

func (f *taskForm) focusField(idx int) tea.Cmd {
	f.focus = idx
	var cmds []tea.Cmd
	for i := range f.inputs {
		if i == idx {
			cmds = append(cmds, f.inputs[i].Focus())
		} else {
			f.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (f taskForm) Input() service.TaskInput {
	return service.TaskInput{
		Name:      strings.TrimSpace(f.inputs[fieldName].Value()),
		DueDate:   strings.TrimSpace(f.inputs[fieldDate].Value()),
		AlarmTime: strings.TrimSpace(f.inputs[fieldTime].Value()),
	}
}

func (f taskForm) Update(msg tea.Msg) (taskForm, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			cmd := f.focusField((f.focus + 1) % fieldCount)
			return f, cmd
		case "shift+tab", "up":
			cmd := f.focusField((f.focus + fieldCount - 1) % fieldCount)
			return f, cmd
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f taskForm) View() string {
	labels := [fieldCount]string{"name", "date", "time"}
	var b strings.Builder
	for i := range f.inputs {
		b.WriteString(statusStyle.Render(labels[i]+": ") + f.inputs[i].View() + "\n")
	}
	return b.String()
}
