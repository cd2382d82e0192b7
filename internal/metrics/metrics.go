// Package metrics collects search statistics in a private Prometheus
// registry and writes them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/NestCut/internal/engine"
)

const namespace = "nestcut"

// Metrics implements engine.Recorder. Prometheus collectors are safe for
// concurrent use, so one Metrics may be shared by parallel evaluations.
type Metrics struct {
	registry *prometheus.Registry

	Evaluations *prometheus.CounterVec   // by status
	Generations prometheus.Counter       // completed generations
	BestFitness prometheus.Gauge         // best fitness of the last generation
	Runs        *prometheus.CounterVec   // by mode and final status
	RunDuration *prometheus.HistogramVec // by mode
	Utilization prometheus.Gauge         // fitness of the last finished run
	SheetsUsed  prometheus.Gauge         // sheets used by the last finished run
}

var _ engine.Recorder = (*Metrics)(nil)

// New creates a registry with all search collectors registered.
// Every status label is pre-initialized so absent outcomes export as zero.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Evaluations = m.newCounterVec(prometheus.CounterOpts{
		Name: "evaluations_total",
		Help: "Candidate solutions evaluated, by outcome.",
	}, []string{"status"})
	m.Generations = m.newCounter(prometheus.CounterOpts{
		Name: "generations_total",
		Help: "Completed generations of the genetic search.",
	})
	m.BestFitness = m.newGauge(prometheus.GaugeOpts{
		Name: "best_fitness",
		Help: "Best fitness in the most recent generation.",
	})
	m.Runs = m.newCounterVec(prometheus.CounterOpts{
		Name: "runs_total",
		Help: "Finished searches, by mode and final status.",
	}, []string{"mode", "status"})
	m.RunDuration = m.newHistogramVec(prometheus.HistogramOpts{
		Name:    "run_duration_seconds",
		Help:    "Wall time of a complete search.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"mode"})
	m.Utilization = m.newGauge(prometheus.GaugeOpts{
		Name: "utilization_ratio",
		Help: "Fitness of the last finished search.",
	})
	m.SheetsUsed = m.newGauge(prometheus.GaugeOpts{
		Name: "sheets_used",
		Help: "Sheets used by the last finished search.",
	})

	for _, s := range engine.AllStatuses() {
		m.Evaluations.WithLabelValues(s.String())
	}
	return m
}

func (m *Metrics) newCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace = namespace
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

func (m *Metrics) newCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	opts.Namespace = namespace
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

func (m *Metrics) newGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace = namespace
	g := prometheus.NewGauge(opts)
	m.registry.MustRegister(g)
	return g
}

func (m *Metrics) newHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	opts.Namespace = namespace
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry returns the registry holding the search collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEvaluation counts one evaluated candidate.
func (m *Metrics) ObserveEvaluation(status engine.Status) {
	m.Evaluations.WithLabelValues(status.String()).Inc()
}

// ObserveGeneration records the end of a generation.
func (m *Metrics) ObserveGeneration(bestFitness float64) {
	m.Generations.Inc()
	m.BestFitness.Set(bestFitness)
}

// ObserveRun records a finished search.
func (m *Metrics) ObserveRun(mode engine.Mode, eval engine.Evaluation, elapsed time.Duration) {
	m.Runs.WithLabelValues(string(mode), eval.Status.String()).Inc()
	m.RunDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	m.Utilization.Set(eval.Fitness())
	m.SheetsUsed.Set(float64(eval.SheetsUsed))
}

// WriteTextfile writes the current values to path in the text exposition
// format, replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
