// Package reminder implements the background sweep that finds tasks whose
// reminder time has passed, fans out best-effort notifications, and marks
// them sent.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mksvk/smart-tasks/internal/tasks"
)

// Store is the slice of the task repository the worker needs.
type Store interface {
	FindDueReminders(ctx context.Context, now time.Time) ([]tasks.Task, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// Notifier delivers one message to one recipient. Delivery is fire-and-forget
// per recipient; the worker never retries a failed delivery.
type Notifier interface {
	Notify(ctx context.Context, recipient, message string) error
}

type Options struct {
	// Interval between scans. Defaults to a minute.
	Interval time.Duration
	// ScanTimeout bounds one whole scan including notification fan-out,
	// so a stuck notification channel cannot stall the loop forever.
	ScanTimeout time.Duration
	Recipients  []string
}

type Worker struct {
	store       Store
	notifier    Notifier
	recipients  []string
	interval    time.Duration
	scanTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func New(store Store, notifier Notifier, opts Options, logger *slog.Logger) *Worker {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = opts.Interval
	}
	return &Worker{
		store:       store,
		notifier:    notifier,
		recipients:  opts.Recipients,
		interval:    opts.Interval,
		scanTimeout: opts.ScanTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the scan clock, for tests.
func (w *Worker) SetClock(now func() time.Time) { w.now = now }

// Run scans on a fixed period until ctx is cancelled. Ticks are strictly
// serial: the loop body finishes before the next tick is taken, and a tick
// that fires while a scan is in flight is dropped by the ticker rather than
// run concurrently. A slow scan defers work, it never duplicates it.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("reminder_worker_started",
		slog.Duration("interval", w.interval),
		slog.Int("recipients", len(w.recipients)),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder_worker_stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs one scan with a bounded deadline and absorbs every error: the
// worker must never take the process down, a failed scan just waits for the
// next tick.
func (w *Worker) tick(ctx context.Context) {
	scansTotal.Inc()

	sctx, cancel := context.WithTimeout(ctx, w.scanTimeout)
	defer cancel()

	n, err := w.Scan(sctx)
	if err != nil {
		scanErrorsTotal.Inc()
		w.logger.Error("reminder_scan_failed", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		w.logger.Info("reminders_dispatched", slog.Int("count", n))
	}
}

// Scan performs a single sweep: query the due set, notify, mark sent.
// A query failure mutates nothing; the same due set is retried next scan.
// Tasks are marked sent regardless of delivery outcome — delivery is best
// effort and a task is consumed by the sweep exactly once under correct
// timing.
func (w *Worker) Scan(ctx context.Context) (int, error) {
	due, err := w.store.FindDueReminders(ctx, w.now())
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, t := range due {
		w.logger.Info("reminder_due",
			slog.String("task_id", t.ID),
			slog.String("title", t.Title),
			slog.String("priority", string(t.Priority)),
			slog.String("due_date", formatDue(t.DueDate)),
		)

		msg := fmt.Sprintf("Reminder for task: %s", t.Title)
		for _, res := range NotifyAll(ctx, w.notifier, w.recipients, msg) {
			if res.Err != nil {
				deliveryFailuresTotal.Inc()
				w.logger.Warn("reminder_delivery_failed",
					slog.String("task_id", t.ID),
					slog.String("recipient", res.Recipient),
					slog.String("error", res.Err.Error()),
				)
			}
		}

		if err := w.store.MarkReminderSent(ctx, t.ID); err != nil {
			// Leave the task due; the next scan picks it up again.
			w.logger.Error("reminder_mark_failed",
				slog.String("task_id", t.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		dispatched++
		dispatchedTotal.Inc()
	}
	return dispatched, nil
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "no due date"
	}
	return due.Format(time.RFC3339)
}
