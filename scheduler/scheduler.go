// Package scheduler implements the periodic reminder dispatch trigger
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"ramadantracker.app/config"
	"ramadantracker.app/service"
)

// Scheduler triggers a dispatcher run at a fixed short interval. Eligibility
// matches the reminder minute exactly, so the interval must stay at or below
// one minute (enforced by config validation).
type Scheduler struct {
	dispatcher service.ReminderDispatcherInterface
	interval   time.Duration
	stopCh     chan struct{}
}

// NewScheduler creates a scheduler for the reminder dispatcher
func NewScheduler(cfg *config.SchedulerConfig, dispatcher service.ReminderDispatcherInterface) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		interval:   time.Duration(cfg.ScanInterval) * time.Second,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the scheduler's operations
func (s *Scheduler) Start() {
	go s.scheduleInterval(s.interval, s.runDispatch)
	slog.Info("Scheduler started", "interval", s.interval)
}

// Stop halts future ticks. A run already in progress finishes on its own.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) scheduleInterval(interval time.Duration, job func()) {
	job()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			job()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runDispatch() {
	if err := s.dispatcher.SendDueReminders(context.Background()); err != nil {
		slog.Error("Reminder scan failed", "error", err)
	}
}
