package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// alertTimeout bounds a single background alert delivery.
const alertTimeout = 15 * time.Second

// Alerter raises operator notifications. *notify.Notifier satisfies it.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// alertDispatcher delivers alerts off the request path. Failures are logged
// only; a slow chat API never delays the caller.
type alertDispatcher struct {
	alerts Alerter
	logger *slog.Logger
	wg     sync.WaitGroup
}

func (d *alertDispatcher) send(ctx context.Context, event, title, message string) {
	if d.alerts == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, alertTimeout)
		defer cancel()
		if err := d.alerts.Notify(ctx, event, title, message); err != nil {
			d.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// wait blocks until every queued alert has been delivered.
func (d *alertDispatcher) wait() {
	d.wg.Wait()
}
