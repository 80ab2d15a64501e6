// Package metrics records Prometheus metrics for classification, statistics
// and exercise generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the metrics of one engine. A nil Manager records nothing.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	classifications     *prometheus.CounterVec
	classifyDuration    prometheus.Histogram
	ruleFaults          *prometheus.CounterVec
	skippedRules        prometheus.Counter
	indexedStrokes      prometheus.Gauge
	statsRefreshes      *prometheus.CounterVec
	statsRefreshLatency prometheus.Histogram
	exercisesGenerated  prometheus.Counter
	noEligible          prometheus.Counter
	exercisesRecorded   prometheus.Counter
}

// NewManager creates a manager on a private registry unless WithRegistry is
// given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "stenotutor",
		buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	m.classifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "classifications_total",
		Help:      "Dictionary classifications by result",
	}, []string{"result"})
	m.classifyDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "classification_duration_seconds",
		Help:      "Time spent classifying the dictionary",
		Buckets:   m.buckets,
	})
	m.ruleFaults = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rule_faults_total",
		Help:      "Matcher faults recorded during classification",
	}, []string{"rule"})
	m.skippedRules = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rules_skipped_total",
		Help:      "Rule definitions skipped while loading a catalogue",
	})
	m.indexedStrokes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "indexed_strokes",
		Help:      "Strokes in the published classification index",
	})
	m.statsRefreshes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "stats_refreshes_total",
		Help:      "Statistics refreshes by result",
	}, []string{"result"})
	m.statsRefreshLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stats_refresh_duration_seconds",
		Help:      "Time spent recomputing statistics",
		Buckets:   m.buckets,
	})
	m.exercisesGenerated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exercises_generated_total",
		Help:      "Exercises produced by the selector",
	})
	m.noEligible = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "no_eligible_entries_total",
		Help:      "Exercise requests with an empty eligible set",
	})
	m.exercisesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "exercises_recorded_total",
		Help:      "Completed exercises appended to the history log",
	})
}

// Registry returns the registry holding the metrics.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics in the Prometheus text format, for the
// node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordClassification records a finished or failed classification.
func (m *Manager) RecordClassification(d time.Duration, strokes int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.classifications.WithLabelValues(result(err)).Inc()
		return
	}
	m.classifications.WithLabelValues("ok").Inc()
	m.classifyDuration.Observe(d.Seconds())
	m.indexedStrokes.Set(float64(strokes))
}

// RecordRuleFault counts a matcher fault for rule.
func (m *Manager) RecordRuleFault(rule string) {
	if m == nil {
		return
	}
	m.ruleFaults.WithLabelValues(rule).Inc()
}

// RecordSkippedRules counts rule definitions dropped while loading.
func (m *Manager) RecordSkippedRules(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedRules.Add(float64(n))
}

// RecordStatsRefresh records a statistics refresh.
func (m *Manager) RecordStatsRefresh(d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.statsRefreshes.WithLabelValues(result(err)).Inc()
		return
	}
	m.statsRefreshes.WithLabelValues("ok").Inc()
	m.statsRefreshLatency.Observe(d.Seconds())
}

// IncrementExercisesGenerated counts a produced exercise.
func (m *Manager) IncrementExercisesGenerated() {
	if m == nil {
		return
	}
	m.exercisesGenerated.Inc()
}

// IncrementNoEligible counts a request that had nothing to select from.
func (m *Manager) IncrementNoEligible() {
	if m == nil {
		return
	}
	m.noEligible.Inc()
}

// IncrementExercisesRecorded counts an exercise appended to the log.
func (m *Manager) IncrementExercisesRecorded() {
	if m == nil {
		return
	}
	m.exercisesRecorded.Inc()
}
