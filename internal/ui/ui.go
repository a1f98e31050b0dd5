package ui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todo-alarm/internal/model"
	"todo-alarm/internal/service"
)

type appState int

const (
	stateList appState = iota
	stateForm
	stateConfirm
	stateAlert
)

// bellInterval is how often the bell repeats while an alert is open.
const bellInterval = 2 * time.Second

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	ackStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	alertStyle   = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42"))
)

type extraKeyMap struct {
	Add    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Copy   key.Binding
	Reload key.Binding
}

func newExtraKeyMap() extraKeyMap {
	return extraKeyMap{
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter/e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
	}
}

// Ringer produces the audible cue while an alert is open.
type Ringer interface {
	Ring() error
}

// CheckDueMsg asks the model to run the due-task check on the UI loop.
type CheckDueMsg struct{}

type tasksLoadedMsg []model.Task
type errMsg struct{ error }
type bellTickMsg struct{ seq int }

// Model is the top-level BubbleTea model for the to-do list.
type Model struct {
	ctx      context.Context
	state    appState
	list     list.Model
	form     taskForm
	tasks    *service.TaskService
	due      *service.DueService
	ringer   Ringer
	keys     extraKeyMap
	now      func() time.Time
	copyText func(string) error

	alerts   []service.DueTask
	alertSeq int
	bellWarn *sync.Once

	status string
	err    error
	width  int
	height int
}

// NewModel creates a new TUI model. ringer may be nil to keep alerts silent.
func NewModel(ctx context.Context, tasks *service.TaskService, due *service.DueService, ringer Ringer) Model {
	keys := newExtraKeyMap()

	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "todo"
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Edit, keys.Delete, keys.Copy, keys.Reload}
	}

	return Model{
		ctx:      ctx,
		state:    stateList,
		list:     l,
		tasks:    tasks,
		due:      due,
		ringer:   ringer,
		keys:     keys,
		now:      time.Now,
		copyText: clipboard.WriteAll,
		bellWarn: &sync.Once{},
	}
}

// Init loads the list and runs a first due check, so tasks that became due
// while the program was closed fire right away.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadTasks, func() tea.Msg { return CheckDueMsg{} })
}

func (m Model) loadTasks() tea.Msg {
	tasks, err := m.tasks.ListTasks(m.ctx)
	if err != nil {
		return errMsg{err}
	}
	return tasksLoadedMsg(tasks)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-2)
		return m, nil

	case tasksLoadedMsg:
		now := m.now()
		items := make([]list.Item, len(msg))
		for i, t := range msg {
			items[i] = TaskItem{Task: t, Now: now}
		}
		cmd := m.list.SetItems(items)
		m.err = nil
		return m, cmd

	case errMsg:
		// Storage failures degrade to an empty list.
		m.err = msg.error
		cmd := m.list.SetItems(nil)
		return m, cmd

	case CheckDueMsg:
		return m.checkDue()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case bellTickMsg:
		if m.state != stateAlert || msg.seq != m.alertSeq {
			return m, nil
		}
		m.ring()
		return m, bellTick(m.alertSeq)
	}

	switch m.state {
	case stateList:
		return m.updateList(msg)
	case stateForm:
		return m.updateForm(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateAlert:
		return m.updateAlert(msg)
	}

	return m, nil
}

// checkDue runs one evaluator tick and refreshes the alert queue.
func (m Model) checkDue() (tea.Model, tea.Cmd) {
	due, err := m.due.Run(m.ctx)
	if err != nil {
		m.err = err
		return m, nil
	}

	var current *service.DueTask
	if m.state == stateAlert && len(m.alerts) > 0 {
		current = &m.alerts[0]
	}

	queue := make([]service.DueTask, 0, len(due))
	stillDue := false
	for _, task := range due {
		if current != nil && task.ID == current.ID {
			stillDue = true
			continue
		}
		queue = append(queue, task)
	}
	if stillDue {
		queue = append([]service.DueTask{due[indexOf(due, current.ID)]}, queue...)
	} else if m.state == stateAlert {
		// The open alert was acknowledged or deleted elsewhere.
		m.state = stateList
	}
	m.alerts = queue

	var cmds []tea.Cmd
	if len(due) > 0 {
		cmds = append(cmds, m.loadTasks)
	}
	var cmd tea.Cmd
	m, cmd = m.maybeShowAlert()
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func indexOf(tasks []service.DueTask, id uint) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// maybeShowAlert opens the next queued alert when the user is on the list.
func (m Model) maybeShowAlert() (Model, tea.Cmd) {
	if m.state != stateList || len(m.alerts) == 0 {
		return m, nil
	}
	m.state = stateAlert
	m.alertSeq++
	m.ring()
	return m, bellTick(m.alertSeq)
}

func (m Model) ring() {
	if m.ringer == nil {
		return
	}
	if err := m.ringer.Ring(); err != nil {
		m.bellWarn.Do(func() { log.Printf("[warn] ring bell: %v", err) })
	}
}

func bellTick(seq int) tea.Cmd {
	return tea.Tick(bellInterval, func(time.Time) tea.Msg { return bellTickMsg{seq: seq} })
}

func (m Model) selectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		switch {
		case key.Matches(keyMsg, m.keys.Add):
			m.state = stateForm
			m.form = newTaskForm(m.now())
			m.status = ""
			cmd := m.form.Focus()
			return m, cmd
		case key.Matches(keyMsg, m.keys.Edit):
			selected, ok := m.selectedTask()
			if !ok {
				return m, nil
			}
			task, err := m.tasks.GetTask(m.ctx, selected.ID)
			if err != nil {
				m.err = err
				return m, m.loadTasks
			}
			m.state = stateForm
			m.form = editTaskForm(*task)
			m.status = ""
			cmd := m.form.Focus()
			return m, cmd
		case key.Matches(keyMsg, m.keys.Delete):
			if _, ok := m.selectedTask(); ok {
				m.state = stateConfirm
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Copy):
			if item, ok := m.list.SelectedItem().(TaskItem); ok {
				if err := m.copyText(item.ClipboardText()); err != nil {
					m.err = fmt.Errorf("copy to clipboard: %w", err)
				} else {
					m.status = "copied to clipboard"
				}
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Reload):
			return m, m.loadTasks
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			input := m.form.Input()
			var err error
			if m.form.editID == 0 {
				_, err = m.tasks.CreateTask(m.ctx, input)
			} else {
				err = m.tasks.UpdateTask(m.ctx, m.form.editID, input)
			}
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.state = stateList
			var cmd tea.Cmd
			m, cmd = m.maybeShowAlert()
			return m, tea.Batch(m.loadTasks, cmd)
		case "esc":
			m.err = nil
			m.state = stateList
			var cmd tea.Cmd
			m, cmd = m.maybeShowAlert()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			if task, ok := m.selectedTask(); ok {
				if err := m.tasks.DeleteTask(m.ctx, task.ID); err != nil {
					m.err = err
				}
				m.alerts = removeAlert(m.alerts, task.ID)
			}
			m.state = stateList
			var cmd tea.Cmd
			m, cmd = m.maybeShowAlert()
			return m, tea.Batch(m.loadTasks, cmd)
		case "n", "esc":
			m.state = stateList
			var cmd tea.Cmd
			m, cmd = m.maybeShowAlert()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) updateAlert(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.alerts) == 0 {
		return m, nil
	}
	current := m.alerts[0]
	switch keyMsg.String() {
	case "y":
		if err := m.tasks.Acknowledge(m.ctx, current.ID); err != nil {
			m.err = err
		}
	case "n", "esc":
		m.tasks.Defer(m.ctx, current.ID)
	default:
		return m, nil
	}
	m.alerts = m.alerts[1:]
	m.state = stateList
	var cmd tea.Cmd
	m, cmd = m.maybeShowAlert()
	return m, tea.Batch(m.loadTasks, cmd)
}

func removeAlert(alerts []service.DueTask, id uint) []service.DueTask {
	out := alerts[:0:0]
	for _, a := range alerts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func (m Model) View() string {
	var errView string
	if m.err != nil {
		errView = "\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case stateForm:
		header := "New Task"
		if m.form.editID != 0 {
			header = fmt.Sprintf("Edit Task #%d", m.form.editID)
		}
		return appStyle.Render(
			titleStyle.Render(header) + "\n\n" +
				m.form.View() + "\n" +
				statusStyle.Render("tab: next field • enter: save • esc: cancel") +
				errView,
		)
	case stateConfirm:
		task, _ := m.selectedTask()
		return appStyle.Render(
			confirmStyle.Render("Delete Task?") + "\n\n" +
				"  " + task.Name + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel") +
				errView,
		)
	case stateAlert:
		current := m.alerts[0]
		body := fmt.Sprintf("Task %s is due (%s).\nMark it as acknowledged?",
			dueStyle.Render(current.Name), current.DueAt.Format("2006-01-02 15:04"))
		if len(m.alerts) > 1 {
			body += statusStyle.Render(fmt.Sprintf("\n\n%d more due", len(m.alerts)-1))
		}
		return appStyle.Render(
			alertStyle.Render(confirmStyle.Render("Task Alert")+"\n\n"+body) + "\n\n" +
				statusStyle.Render("y: acknowledge • n/esc: remind me again") +
				errView,
		)
	default:
		footer := ""
		if m.status != "" {
			footer = "\n" + statusStyle.Render(m.status)
		}
		if n := len(m.alerts); n > 0 {
			footer += "\n" + dueStyle.Render(fmt.Sprintf("%d task(s) due", n))
		}
		return appStyle.Render(m.list.View() + footer + errView)
	}
}

