package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"authsvc/internal/metrics"
)

// NotificationDispatcher decides how a Notifier call relates to the request that
// triggered it. In strict mode the send runs inline and its error is returned.
// Otherwise it runs on a tracked goroutine detached from request cancellation, and
// failures are only logged and counted.
type NotificationDispatcher struct {
	strict  bool
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewNotificationDispatcher(strict bool, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *NotificationDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationDispatcher{strict: strict, timeout: timeout, log: log, metrics: m}
}

func (d *NotificationDispatcher) Strict() bool { return d.strict }

func (d *NotificationDispatcher) Dispatch(ctx context.Context, kind string, send func(context.Context) error) error {
	if d.strict {
		return d.run(ctx, kind, send)
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = d.run(bg, kind, send)
	}()
	return nil
}

// Wait blocks until every in-flight asynchronous send has finished.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) run(ctx context.Context, kind string, send func(context.Context) error) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := send(ctx); err != nil {
		d.log.ErrorContext(ctx, "notification failed", "kind", kind, "err", err)
		d.metrics.ObserveNotification(kind, "failed")
		return err
	}
	d.log.DebugContext(ctx, "notification sent", "kind", kind)
	d.metrics.ObserveNotification(kind, "sent")
	return nil
}
