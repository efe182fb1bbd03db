package service

import (
	"context"
	goerrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"ramadantracker.app/config"
	"ramadantracker.app/eligibility"
	"ramadantracker.app/errors"
	"ramadantracker.app/metrics"
)

// ReminderDispatcher runs the due-reminder scan: it pages through every
// subscription record, evaluates eligibility against the current instant and
// triggers at most one push attempt per eligible subscriber.
//
// A run holds no lock: if a run outlives the scheduler interval, the
// overlapping runs can race inside the same subscriber-local minute and both
// send. The narrow due window plus the lastSentDate re-check bounds that to a
// single duplicate reminder, which is an accepted hazard.
type ReminderDispatcher struct {
	store       SubscriptionStore
	sender      PushSender
	metrics     *metrics.DispatchMetrics
	pageSize    int
	concurrency int
	now         func() time.Time
}

// NewReminderDispatcher creates a dispatcher over the given store and sender.
func NewReminderDispatcher(
	store SubscriptionStore,
	sender PushSender,
	dispatchMetrics *metrics.DispatchMetrics,
	cfg *config.SchedulerConfig,
) *ReminderDispatcher {
	return &ReminderDispatcher{
		store:       store,
		sender:      sender,
		metrics:     dispatchMetrics,
		pageSize:    cfg.PageSize,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}
}

// SendDueReminders scans the whole registry once, dispatching per-endpoint
// work concurrently. Per-subscriber failures are isolated: they are logged
// and counted but never abort the run.
func (d *ReminderDispatcher) SendDueReminders(ctx context.Context) error {
	runID := uuid.New().String()
	start := time.Now()
	scanned := 0

	slog.Debug("Reminder scan started", "run_id", runID)

	cursor := ""
	for {
		endpoints, next, err := d.store.List(ctx, cursor, d.pageSize)
		if err != nil {
			return err
		}
		scanned += len(endpoints)

		var wg sync.WaitGroup
		sem := make(chan struct{}, d.concurrency)
		for _, endpoint := range endpoints {
			wg.Add(1)
			sem <- struct{}{}
			go func(endpoint string) {
				defer wg.Done()
				defer func() { <-sem }()
				d.processEndpoint(ctx, runID, endpoint)
			}(endpoint)
		}
		wg.Wait()

		if next == "" {
			break
		}
		cursor = next
	}

	d.metrics.RecordRun(scanned, time.Since(start).Seconds())
	slog.Debug("Reminder scan finished", "run_id", runID, "scanned", scanned, "duration", time.Since(start))
	return nil
}

func (d *ReminderDispatcher) processEndpoint(ctx context.Context, runID, endpoint string) {
	sub, err := d.store.Get(ctx, endpoint)
	if err != nil {
		var appErr *errors.AppError
		if goerrors.As(err, &appErr) && appErr.Type == errors.CorruptRecordError {
			// Self-heal: a record that no longer parses can never be dispatched.
			if delErr := d.store.Delete(ctx, endpoint); delErr != nil {
				slog.Error("Failed to delete corrupt subscription", "run_id", runID, "endpoint", endpoint, "error", delErr)
				return
			}
			d.metrics.RecordPruned("corrupt")
			slog.Warn("Deleted corrupt subscription record", "run_id", runID, "endpoint", endpoint)
			return
		}
		slog.Error("Failed to load subscription", "run_id", runID, "endpoint", endpoint, "error", err)
		return
	}
	if sub == nil {
		return
	}

	now := d.now()
	if !eligibility.IsDue(sub, now) {
		return
	}

	result, err := d.sender.Send(ctx, sub.Endpoint)
	if err != nil {
		// Covers network errors and per-call crypto failures; the record is
		// left untouched and retried on the next eligible tick.
		d.metrics.RecordFailure()
		slog.Error("Push send failed", "run_id", runID, "endpoint", sub.Endpoint, "error", err)
		return
	}

	switch {
	case result.OK():
		sub.LastSentDate = eligibility.DateKey(sub.Timezone, now)
		if err := d.store.Put(ctx, sub); err != nil {
			slog.Error("Failed to record sent date", "run_id", runID, "endpoint", sub.Endpoint, "error", err)
			return
		}
		d.metrics.RecordSent()
		slog.Info("Reminder delivered", "run_id", runID, "endpoint", sub.Endpoint, "date", sub.LastSentDate)
	case result.Gone():
		if err := d.store.Delete(ctx, sub.Endpoint); err != nil {
			slog.Error("Failed to delete gone subscription", "run_id", runID, "endpoint", sub.Endpoint, "error", err)
			return
		}
		d.metrics.RecordPruned("gone")
		slog.Info("Deleted permanently gone subscription", "run_id", runID, "endpoint", sub.Endpoint, "status", result.StatusCode)
	default:
		d.metrics.RecordFailure()
		slog.Warn("Transient push failure, will retry next tick", "run_id", runID, "endpoint", sub.Endpoint, "status", result.StatusCode)
	}
}
