package profile

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operation metrics
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Watch metrics
	watchStaleStatus *prometheus.GaugeVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// OpMetrics provides methods to record operation metrics.
type OpMetrics struct{}

// NewOpMetrics creates a new OpMetrics instance. Recording is a no-op
// until InitMetrics has run.
func NewOpMetrics() *OpMetrics {
	return &OpMetrics{}
}

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup if Prometheus metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		operationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "halyard_operations_total",
				Help: "Total number of operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		)

		operationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "halyard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		)

		watchStaleStatus = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "halyard_watch_stale",
				Help: "Whether a watched file is currently served from a stale cache (1=stale, 0=fresh)",
			},
			[]string{"path"},
		)

		metricsRegistered = true
	})
}

// RecordOperation records one completed operation with its outcome.
func (m *OpMetrics) RecordOperation(operation, outcome string, durationSeconds float64) {
	if !metricsRegistered {
		return
	}

	if operationsTotal != nil {
		operationsTotal.WithLabelValues(operation, outcome).Inc()
	}

	if operationDuration != nil {
		operationDuration.WithLabelValues(operation).Observe(durationSeconds)
	}
}

// SetWatchStale flags whether a watched path is being served stale.
func (m *OpMetrics) SetWatchStale(path string, stale bool) {
	if !metricsRegistered || watchStaleStatus == nil {
		return
	}

	value := 0.0
	if stale {
		value = 1.0
	}
	watchStaleStatus.WithLabelValues(path).Set(value)
}

// Timed runs fn, records its duration and outcome under operation, and
// returns fn's error unchanged.
func Timed(m *OpMetrics, operation string, fn func() error) error {
	start := time.Now()
	err := fn()

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RecordOperation(operation, outcome, time.Since(start).Seconds())

	return err
}

// GetOperationsTotal returns the operations counter for testing.
func GetOperationsTotal() *prometheus.CounterVec {
	return operationsTotal
}

// GetOperationDuration returns the duration histogram for testing.
func GetOperationDuration() *prometheus.HistogramVec {
	return operationDuration
}

// GetWatchStaleStatus returns the stale gauge for testing.
func GetWatchStaleStatus() *prometheus.GaugeVec {
	return watchStaleStatus
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}
