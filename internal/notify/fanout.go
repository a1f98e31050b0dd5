package notify

import (
	"context"
	"errors"

	"todo-alarm/internal/service"
)

// Fanout delivers every due task to all channels and joins their errors.
type Fanout []service.Notifier

func (f Fanout) Notify(ctx context.Context, task service.DueTask) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FirstAttempt forwards a task only the first time it is found due in an episode.
// Remote channels use it so a deferred alarm is not resent every tick.
func FirstAttempt(next service.Notifier) service.Notifier {
	return service.NotifierFunc(func(ctx context.Context, task service.DueTask) error {
		if task.Attempt > 1 {
			return nil
		}
		return next.Notify(ctx, task)
	})
}
