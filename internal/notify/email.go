package notify

import (
	"context"
	"fmt"
	"html"
	"log"

	"gopkg.in/gomail.v2"

	"todo-alarm/internal/service"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends one message per due task through an SMTP dialer.
// Notify only queues; Run does the network work off the UI loop.
type Email struct {
	sender mailSender
	from   string
	to     string
	queue  chan service.DueTask
}

func NewEmail(smtpHost string, smtpPort int, smtpUser, smtpPassword, from, to string) *Email {
	return newEmail(gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword), from, to)
}

func newEmail(sender mailSender, from, to string) *Email {
	return &Email{
		sender: sender,
		from:   from,
		to:     to,
		queue:  make(chan service.DueTask, 32),
	}
}

func (e *Email) Notify(_ context.Context, task service.DueTask) error {
	select {
	case e.queue <- task:
		return nil
	default:
		return fmt.Errorf("email queue full, dropping alert for task %d", task.ID)
	}
}

// Run sends queued alerts until ctx is cancelled.
func (e *Email) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-e.queue:
			if err := e.sender.DialAndSend(e.message(task)); err != nil {
				log.Printf("[warn] send email for task %d: %v", task.ID, err)
				continue
			}
			log.Printf("[info] email alert sent for task %d", task.ID)
		}
	}
}

func (e *Email) message(task service.DueTask) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to)
	m.SetHeader("Subject", fmt.Sprintf("Task due: %s", task.Name))
	m.SetBody("text/html", fmt.Sprintf(`
		<h3>%s</h3>
		<p>Due %s.</p>
		<p>Acknowledge it in the to-do list to stop the alarm.</p>
	`, html.EscapeString(task.Name), task.DueAt.Format("2006-01-02 15:04")))
	return m
}
