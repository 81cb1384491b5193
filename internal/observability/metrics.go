// Package observability exposes scenario pipeline and comparison metrics
// through Prometheus.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Comparison outcome labels.
const (
	ComparisonSucceeded = "succeeded"
	ComparisonFailed    = "failed"
)

// PipelineMetrics records per-stage timings, stage failures and run
// outcomes. It satisfies scenario.StageObserver.
type PipelineMetrics struct {
	gatherer prometheus.Gatherer

	StageDurations *prometheus.HistogramVec
	StageFailures  *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	Comparisons    *prometheus.CounterVec
}

// NewPipelineMetrics registers the collectors against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry reuses the existing collectors.
func NewPipelineMetrics(reg prometheus.Registerer) (*PipelineMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "scenario_stage_duration_seconds",
		Help: "Wall time of each scenario pipeline stage in seconds.",
		// Tool stages range from sub-second conversions to multi-minute downloads.
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"}), "scenario_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scenario_stage_failures_total",
		Help: "Scenario stage failures, labeled by stage and error kind.",
	}, []string{"stage", "kind"}), "scenario_stage_failures_total")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scenario_runs_total",
		Help: "Completed scenario runs, labeled by outcome.",
	}, []string{"status"}), "scenario_runs_total")
	if err != nil {
		return nil, err
	}

	comparisons, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "comparison_runs_total",
		Help: "Clean versus blocked comparison reports, labeled by outcome.",
	}, []string{"status"}), "comparison_runs_total")
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		gatherer:       gatherer,
		StageDurations: durations,
		StageFailures:  failures,
		Runs:           runs,
		Comparisons:    comparisons,
	}, nil
}

// ObserveStage records one stage. failureKind is empty for stages that did
// not fail.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration, failureKind string) {
	if m == nil {
		return
	}
	m.StageDurations.WithLabelValues(stage).Observe(d.Seconds())
	if failureKind != "" {
		m.StageFailures.WithLabelValues(stage, failureKind).Inc()
	}
}

// ObserveRun records a finished run.
func (m *PipelineMetrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
}

// ObserveComparison records one comparison attempt.
func (m *PipelineMetrics) ObserveComparison(err error) {
	if m == nil {
		return
	}
	status := ComparisonSucceeded
	if err != nil {
		status = ComparisonFailed
	}
	m.Comparisons.WithLabelValues(status).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (m *PipelineMetrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
