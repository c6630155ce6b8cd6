// Package metrics provides Prometheus metrics for the job planner.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure reasons used as the "reason" label of plan failures.
const (
	ReasonValidation = "validation"
	ReasonInput      = "input"
	ReasonSchedule   = "schedule"
	ReasonThreshold  = "threshold"
	ReasonSpace      = "space"
	ReasonSink       = "sink"
)

// Manager manages all Prometheus metrics for the planner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Planning outcome
	descriptorsPlanned prometheus.Counter
	descriptorsWritten prometheus.Counter
	descriptorsCleared prometheus.Counter
	planFailures       *prometheus.CounterVec
	planDuration       prometheus.Histogram

	// Last run snapshot
	gridCombinations prometheus.Gauge
	successTarget    prometheus.Gauge
	scoreThreshold   prometheus.Gauge
	scoreSampleSize  prometheus.Gauge
	totalMolecules   prometheus.Gauge
	iteration        prometheus.Gauge
	lastSuccessUnix  prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "jobplan",
		subsystem:        "planner",
		histogramBuckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.descriptorsPlanned = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "descriptors_planned_total",
		Help:      "Total number of job descriptors built",
	})

	m.descriptorsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "descriptors_written_total",
		Help:      "Total number of job descriptors handed to the sink",
	})

	m.descriptorsCleared = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "descriptors_cleared_total",
		Help:      "Total number of stale artifacts removed before planning",
	})

	m.planFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "plan_failures_total",
			Help:      "Total number of aborted plans by reason",
		},
		[]string{"reason"},
	)

	m.planDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "plan_duration_milliseconds",
		Help:      "Wall time of a planning run in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.gridCombinations = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "grid_combinations",
		Help:      "Number of hyperparameter combinations in the last plan",
	})

	m.successTarget = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "success_target",
		Help:      "Success count used for the last threshold",
	})

	m.scoreThreshold = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_threshold",
		Help:      "Score cutoff resolved for the last plan",
	})

	m.scoreSampleSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_sample_size",
		Help:      "Number of validation scores in the last plan",
	})

	m.totalMolecules = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_molecules",
		Help:      "Dataset size reported by the dataset reader",
	})

	m.iteration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "iteration",
		Help:      "Iteration index of the last plan",
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful plan",
	})
}

// RecordDescriptorsPlanned adds n built descriptors.
func (m *Manager) RecordDescriptorsPlanned(n int) {
	if m.enabled {
		m.descriptorsPlanned.Add(float64(n))
	}
}

// RecordDescriptorWritten increments the written descriptors counter.
func (m *Manager) RecordDescriptorWritten() {
	if m.enabled {
		m.descriptorsWritten.Inc()
	}
}

// RecordDescriptorsCleared adds n removed artifacts.
func (m *Manager) RecordDescriptorsCleared(n int) {
	if m.enabled {
		m.descriptorsCleared.Add(float64(n))
	}
}

// RecordPlanFailure increments the failure counter for reason.
func (m *Manager) RecordPlanFailure(reason string) {
	if m.enabled {
		m.planFailures.WithLabelValues(reason).Inc()
	}
}

// RecordPlanDuration records plan wall time in milliseconds.
func (m *Manager) RecordPlanDuration(ms float64) {
	if m.enabled {
		m.planDuration.Observe(ms)
	}
}

// UpdatePlanSnapshot sets the gauges describing a finished plan.
func (m *Manager) UpdatePlanSnapshot(s Snapshot) {
	if !m.enabled {
		return
	}
	m.iteration.Set(float64(s.Iteration))
	m.gridCombinations.Set(float64(s.Combinations))
	m.successTarget.Set(float64(s.Target))
	m.scoreThreshold.Set(s.Threshold)
	m.scoreSampleSize.Set(float64(s.SampleSize))
	m.totalMolecules.Set(float64(s.TotalMolecules))
	m.lastSuccessUnix.SetToCurrentTime()
}

// Snapshot is the per-run gauge set.
type Snapshot struct {
	Iteration      int
	Combinations   int
	Target         int
	Threshold      float64
	SampleSize     int
	TotalMolecules int
}

// Default returns the process-wide manager registered on GetRegistry.
func Default() *Manager { return globalManager }

// GetRegistry returns the custom registry backing Default.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes g in the node-exporter textfile format. A nil
// gatherer means the custom registry.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = customRegistry
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteTextfile, path, err)
	}
	return nil
}
