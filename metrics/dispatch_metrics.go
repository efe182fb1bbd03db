package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DispatchMetricsCollector struct {
	Runs        prometheus.Counter
	Scanned     prometheus.Counter
	Sent        prometheus.Counter
	Failures    prometheus.Counter
	Pruned      *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

var (
	globalCollector *DispatchMetricsCollector
	collectorOnce   sync.Once
)

func getCollector() *DispatchMetricsCollector {
	collectorOnce.Do(func() {
		globalCollector = &DispatchMetricsCollector{
			Runs: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reminder_dispatch_runs_total",
				Help: "The total number of dispatcher scan runs",
			}),
			Scanned: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reminder_subscriptions_scanned_total",
				Help: "The total number of subscription records scanned",
			}),
			Sent: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reminders_sent_total",
				Help: "The total number of reminders confirmed delivered",
			}),
			Failures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reminder_send_failures_total",
				Help: "The total number of transient send failures left for retry",
			}),
			Pruned: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reminder_subscriptions_pruned_total",
					Help: "The total number of subscription records deleted by the dispatcher",
				},
				[]string{"reason"},
			),
			RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "reminder_dispatch_run_duration_seconds",
				Help:    "Dispatcher scan run duration in seconds",
				Buckets: prometheus.DefBuckets,
			}),
		}
	})
	return globalCollector
}

// DispatchMetrics tracks reminder dispatch outcomes both in-process (for the
// stats endpoint) and in Prometheus.
type DispatchMetrics struct {
	runs      int64
	scanned   int64
	sent      int64
	failures  int64
	pruned    int64
	collector *DispatchMetricsCollector
	mu        sync.RWMutex
}

func NewDispatchMetrics() *DispatchMetrics {
	return &DispatchMetrics{
		collector: getCollector(),
	}
}

func (m *DispatchMetrics) RecordRun(scanned int, durationSeconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs++
	m.scanned += int64(scanned)
	m.collector.Runs.Inc()
	m.collector.Scanned.Add(float64(scanned))
	m.collector.RunDuration.Observe(durationSeconds)
}

func (m *DispatchMetrics) RecordSent() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent++
	m.collector.Sent.Inc()
}

func (m *DispatchMetrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures++
	m.collector.Failures.Inc()
}

// RecordPruned counts a record deleted by the dispatcher; reason is "gone"
// for terminal push failures and "corrupt" for unparseable records.
func (m *DispatchMetrics) RecordPruned(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruned++
	m.collector.Pruned.WithLabelValues(reason).Inc()
}

func (m *DispatchMetrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"runs":     m.runs,
		"scanned":  m.scanned,
		"sent":     m.sent,
		"failures": m.failures,
		"pruned":   m.pruned,
	}
}
