// Package worker holds the periodic background jobs started by the API
// process: the hold sweeper and the notification mailer.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/obichijioke/eventapp/internal/app"
	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/logging"
	"github.com/obichijioke/eventapp/internal/mail"
	"github.com/obichijioke/eventapp/internal/metrics"
)

const mailBatchSize = 50

// HoldExpirer releases holds whose TTL has passed.
type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (int, error)
}

// NotificationDeliverer emails notifications that have not been sent yet.
type NotificationDeliverer interface {
	DeliverPending(ctx context.Context, sender mail.Sender, limit int) (app.DeliveryReport, error)
}

// run calls fn on every tick until ctx is cancelled. Each tick gets its own
// correlation ID so log lines from one pass can be grouped.
func run(ctx context.Context, clk clock.Clock, interval time.Duration, name string, fn func(context.Context)) {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "worker started", "worker", name, "interval", interval)
	for {
		select {
		case <-ticker.Chan():
			fn(logging.WithCorrelationID(ctx, logging.NewCorrelationID()))
		case <-ctx.Done():
			slog.InfoContext(ctx, "worker stopped", "worker", name)
			return
		}
	}
}

type HoldSweeper struct {
	holds    HoldExpirer
	clock    clock.Clock
	interval time.Duration
	metrics  *metrics.Metrics
}

// NewHoldSweeper returns a sweeper; m may be nil.
func NewHoldSweeper(holds HoldExpirer, clk clock.Clock, interval time.Duration, m *metrics.Metrics) *HoldSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HoldSweeper{holds: holds, clock: clk, interval: interval, metrics: m}
}

// Run blocks until ctx is cancelled.
func (w *HoldSweeper) Run(ctx context.Context) {
	run(ctx, w.clock, w.interval, "hold_sweeper", func(ctx context.Context) {
		if _, err := w.Sweep(ctx); err != nil {
			slog.ErrorContext(ctx, "hold sweep failed", "error", err)
		}
	})
}

// Sweep performs a single pass and returns the number of holds expired.
func (w *HoldSweeper) Sweep(ctx context.Context) (int, error) {
	n, err := w.holds.ExpireHolds(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.DebugContext(ctx, "holds expired", "count", n)
		if w.metrics != nil {
			w.metrics.HoldsExpired.Add(float64(n))
		}
	}
	return n, nil
}

type Mailer struct {
	notifications NotificationDeliverer
	sender        mail.Sender
	clock         clock.Clock
	interval      time.Duration
	metrics       *metrics.Metrics
}

// NewMailer returns a mailer; m may be nil.
func NewMailer(n NotificationDeliverer, sender mail.Sender, clk clock.Clock, interval time.Duration, m *metrics.Metrics) *Mailer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Mailer{notifications: n, sender: sender, clock: clk, interval: interval, metrics: m}
}

// Run blocks until ctx is cancelled.
func (w *Mailer) Run(ctx context.Context) {
	run(ctx, w.clock, w.interval, "mailer", func(ctx context.Context) {
		if _, err := w.Deliver(ctx); err != nil {
			slog.ErrorContext(ctx, "notification delivery failed", "error", err)
		}
	})
}

// Deliver sends one batch of pending notifications.
func (w *Mailer) Deliver(ctx context.Context) (app.DeliveryReport, error) {
	report, err := w.notifications.DeliverPending(ctx, w.sender, mailBatchSize)
	if err != nil {
		return report, err
	}
	if w.metrics != nil {
		w.metrics.EmailsSent.WithLabelValues("sent").Add(float64(report.Sent))
		w.metrics.EmailsSent.WithLabelValues("failed").Add(float64(report.Failed))
	}
	if report.Sent+report.Failed > 0 {
		slog.DebugContext(ctx, "notifications delivered", "sent", report.Sent, "failed", report.Failed)
	}
	return report, nil
}
