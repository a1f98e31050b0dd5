package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-alarm/internal/model"
	"todo-alarm/internal/repository"
	"todo-alarm/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageName
	stageDueDate
	stageAlarmTime
)

const (
	cbAckPrefix    = "ack:"
	cbLaterPrefix  = "later:"
	cbDeletePrefix = "delete:"
)

const (
	iconPending = "🟢"
	iconDue     = "⏰"
	iconAcked   = "✅"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// Bot mirrors alarms to a single Telegram chat and accepts task commands from it.
type Bot struct {
	api          *tgbotapi.BotAPI
	chatID       int64
	tasks        *service.TaskService
	outbox       chan service.DueTask
	conversation *conversationState
	mu           sync.Mutex
}

func New(token string, chatID int64, tasks *service.TaskService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return newBot(api, chatID, tasks), nil
}

func newBot(api *tgbotapi.BotAPI, chatID int64, tasks *service.TaskService) *Bot {
	return &Bot{
		api:    api,
		chatID: chatID,
		tasks:  tasks,
		outbox: make(chan service.DueTask, 32),
	}
}

// Notify queues an alert; Start delivers it so the caller never waits on the network.
func (b *Bot) Notify(_ context.Context, task service.DueTask) error {
	select {
	case b.outbox <- task:
		return nil
	default:
		return fmt.Errorf("telegram outbox full, dropping alert for task %d", task.ID)
	}
}

// Start begins polling updates and delivering alerts until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-b.outbox:
			if err := b.sendAlert(task); err != nil {
				log.Printf("send alert: %v", err)
			}
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		log.Printf("[info] command /%s %s", msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	b.mu.Lock()
	state := b.conversation
	b.mu.Unlock()
	if state != nil {
		return b.handleConversation(ctx, state, strings.TrimSpace(msg.Text))
	}

	return b.sendText("I did not get that. Send /add to create a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.sendText(helpText)
	case "tasks":
		return b.sendTaskList(ctx)
	case "add":
		b.setConversation(&conversationState{stage: stageName})
		return b.sendText("🆕 New task.\n<b>Step 1:</b> what should it be called?")
	case "ack":
		id, err := strconv.ParseUint(strings.TrimSpace(msg.CommandArguments()), 10, 64)
		if err != nil {
			return b.sendText("Usage: /ack &lt;id&gt;")
		}
		return b.acknowledge(ctx, uint(id))
	case "delete":
		id, err := strconv.ParseUint(strings.TrimSpace(msg.CommandArguments()), 10, 64)
		if err != nil {
			return b.sendText("Usage: /delete &lt;id&gt;")
		}
		return b.delete(ctx, uint(id))
	case "cancel":
		b.setConversation(nil)
		return b.sendText("⏪ Cancelled.")
	default:
		return b.sendText("Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /tasks - list tasks with buttons\n" +
	"• /add - create a task step by step\n" +
	"• /ack &lt;id&gt; - acknowledge a due task\n" +
	"• /delete &lt;id&gt; - delete a task\n" +
	"• /cancel - abort the current input"

func (b *Bot) handleConversation(ctx context.Context, state *conversationState, text string) error {
	reply, done, err := advance(state, text)
	if err != nil {
		return b.sendText(escape(err.Error()))
	}
	if !done {
		return b.sendText(reply)
	}
	b.setConversation(nil)

	task, err := b.tasks.CreateTask(ctx, state.input)
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not create the task: %s", escape(err.Error())))
	}
	return b.sendText(fmt.Sprintf("✅ Task <b>#%d</b> %s saved for %s %s.", task.ID, escape(task.Name), task.DueDate, task.AlarmTime))
}

// advance applies one answer to the conversation and returns the next prompt.
func advance(state *conversationState, text string) (reply string, done bool, err error) {
	switch state.stage {
	case stageName:
		if text == "" {
			return "", false, service.ErrEmptyName
		}
		state.input.Name = text
		state.stage = stageDueDate
		return "📅 Due date? Use <code>2025-11-30</code>.", false, nil
	case stageDueDate:
		date, err := model.ParseDate(text)
		if err != nil {
			return "", false, err
		}
		state.input.DueDate = date
		state.stage = stageAlarmTime
		return "⏰ Alarm time? Use <code>08:30</code>.", false, nil
	case stageAlarmTime:
		clock, err := model.ParseClock(text)
		if err != nil {
			return "", false, err
		}
		state.input.AlarmTime = clock
		state.stage = stageNone
		return "", true, nil
	default:
		return "", false, errors.New("no task is being created, send /add")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbAckPrefix):
		taskID, err := parseTaskID(data, cbAckPrefix)
		if err != nil {
			return nil
		}
		return b.acknowledge(ctx, taskID)
	case strings.HasPrefix(data, cbLaterPrefix):
		taskID, err := parseTaskID(data, cbLaterPrefix)
		if err != nil {
			return nil
		}
		b.tasks.Defer(ctx, taskID)
		return b.sendText(fmt.Sprintf("🔁 Task #%d will keep ringing until acknowledged.", taskID))
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.delete(ctx, taskID)
	default:
		return nil
	}
}

func (b *Bot) acknowledge(ctx context.Context, id uint) error {
	if found, err := b.taskExists(ctx, id); err != nil || !found {
		return b.replyMissing(id, err)
	}
	if err := b.tasks.Acknowledge(ctx, id); err != nil {
		return b.sendText(fmt.Sprintf("Could not acknowledge #%d: %s", id, escape(err.Error())))
	}
	return b.sendText(fmt.Sprintf("%s Task #%d acknowledged.", iconAcked, id))
}

func (b *Bot) delete(ctx context.Context, id uint) error {
	if found, err := b.taskExists(ctx, id); err != nil || !found {
		return b.replyMissing(id, err)
	}
	if err := b.tasks.DeleteTask(ctx, id); err != nil {
		return b.sendText(fmt.Sprintf("Could not delete #%d: %s", id, escape(err.Error())))
	}
	return b.sendText(fmt.Sprintf("🗑 Task #%d deleted.", id))
}

func (b *Bot) taskExists(ctx context.Context, id uint) (bool, error) {
	_, err := b.tasks.GetTask(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (b *Bot) replyMissing(id uint, err error) error {
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not load #%d: %s", id, escape(err.Error())))
	}
	return b.sendText(fmt.Sprintf("Task #%d not found.", id))
}

func (b *Bot) sendTaskList(ctx context.Context) error {
	tasks, err := b.tasks.ListTasks(ctx)
	if err != nil {
		return b.sendText(fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText("No tasks yet. Send /add to create one.")
	}
	return b.sendWithReplyMarkup(formatTaskList(tasks, time.Now()), taskListKeyboard(tasks))
}

func (b *Bot) sendAlert(task service.DueTask) error {
	return b.sendWithReplyMarkup(alertText(task), alertKeyboard(task.ID))
}

func (b *Bot) setConversation(state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversation = state
}

func (b *Bot) sendText(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimPrefix(data, prefix)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse task id %q: %w", raw, err)
	}
	return uint(id), nil
}

func alertText(task service.DueTask) string {
	return fmt.Sprintf("%s <b>Task due</b>\n<b>#%d</b> %s\n🗓 %s",
		iconDue, task.ID, escape(task.Name), task.DueAt.Format("2006-01-02 15:04"))
}

func alertKeyboard(taskID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(iconAcked+" Acknowledge", fmt.Sprintf("%s%d", cbAckPrefix, taskID)),
			tgbotapi.NewInlineKeyboardButtonData("🔁 Later", fmt.Sprintf("%s%d", cbLaterPrefix, taskID)),
		),
	)
}

func taskListKeyboard(tasks []model.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🗑 #%d %s", task.ID, shortTitle(task.Name, 24)), fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
		}
		if !task.Acknowledged {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s #%d", iconAcked, task.ID), fmt.Sprintf("%s%d", cbAckPrefix, task.ID)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatTaskList(tasks []model.Task, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Tasks</b>\n\n")
	for _, task := range tasks {
		icon := iconPending
		switch task.Status(now) {
		case model.StatusDue:
			icon = iconDue
		case model.StatusAcknowledgedToday, model.StatusDone:
			icon = iconAcked
		}
		sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n   🗓 %s %s\n", icon, task.ID, escape(task.Name), task.DueDate, task.AlarmTime))
	}
	return strings.TrimSpace(sb.String())
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
