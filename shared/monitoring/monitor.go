package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sprinkler_agent"

const (
	resultSuccess         = "success"
	resultPartialFailure  = "partial_failure"
	resultCriticalFailure = "critical_failure"
)

type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	logger         *slog.Logger
	now            func() time.Time

	registry     *prometheus.Registry
	runsTotal    *prometheus.CounterVec
	lastRunAt    prometheus.Gauge
	lastDuration prometheus.Gauge
}

func NewMonitor(logger *slog.Logger) *Monitor {
	m := &Monitor{
		logger:   logger.With("component", "monitor"),
		now:      time.Now,
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Sprinkler check runs by result.",
		}, []string{"result"}),
		lastRunAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
		lastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last completed run.",
		}),
	}

	m.registry.MustRegister(m.runsTotal, m.lastRunAt, m.lastDuration)
	// Expose every result label from the start
	for _, result := range []string{resultSuccess, resultPartialFailure, resultCriticalFailure} {
		m.runsTotal.WithLabelValues(result)
	}

	return m
}

// Registry returns the registry the monitor's metrics are registered on
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = m.now()
	m.lastSummary = summary
	m.observe(resultSuccess, duration)
	m.mu.Unlock()

	m.logger.Info("run completed successfully", "summary", summary, "duration", duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Health status is unchanged by partial failures
	m.runsTotal.WithLabelValues(resultPartialFailure).Inc()
	m.logger.Warn("partial failure", "error", err, "duration", duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = m.now()
	m.lastSummary = err.Error()
	m.observe(resultCriticalFailure, duration)
	failedAt := m.lastRunTime
	m.mu.Unlock()

	m.logger.Error("critical failure", "error", err, "duration", duration, "failed_at", failedAt.Format(time.DateTime))
}

func (m *Monitor) observe(result string, duration time.Duration) {
	m.runsTotal.WithLabelValues(result).Inc()
	m.lastRunAt.Set(float64(m.lastRunTime.Unix()))
	m.lastDuration.Set(duration.Seconds())
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last run: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
	}
	return fmt.Sprintf("❌ Last run failed: %s - %s", m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary)
}
