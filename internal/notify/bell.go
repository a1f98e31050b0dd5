// Package notify holds the due-task channels that do not need a chat front end.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"todo-alarm/internal/service"
)

// Bell rings the terminal bell and prints a one-line alert.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

func (b *Bell) Notify(_ context.Context, task service.DueTask) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := fmt.Fprintf(b.out, "\a⏰ #%d %s is due (%s)\n", task.ID, task.Name, task.DueAt.Format("2006-01-02 15:04"))
	return err
}

// Ring emits only the bell character.
func (b *Bell) Ring() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.out, "\a")
	return err
}
