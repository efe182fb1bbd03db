package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ramadantracker.app/config"
)

type countingDispatcher struct {
	runs atomic.Int64
}

func (d *countingDispatcher) SendDueReminders(context.Context) error {
	d.runs.Add(1)
	return nil
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	dispatcher := &countingDispatcher{}
	s := NewScheduler(&config.SchedulerConfig{ScanInterval: 1, Concurrency: 1, PageSize: 10}, dispatcher)
	s.interval = 20 * time.Millisecond

	s.Start()
	defer s.Stop()

	// The first run fires before the first tick.
	require.Eventually(t, func() bool {
		return dispatcher.runs.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return dispatcher.runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopHaltsTicks(t *testing.T) {
	dispatcher := &countingDispatcher{}
	s := NewScheduler(&config.SchedulerConfig{ScanInterval: 1, Concurrency: 1, PageSize: 10}, dispatcher)
	s.interval = 10 * time.Millisecond

	s.Start()
	require.Eventually(t, func() bool {
		return dispatcher.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	settled := dispatcher.runs.Load()

	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, dispatcher.runs.Load(), settled+1)
}
