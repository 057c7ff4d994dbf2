package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages used as the "stage" label.
const (
	StageFilter = "filter"
	StageRender = "render"
	StageWrite  = "write"
)

// Pipeline Prometheus metrics.
var (
	DocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pesto",
			Name:      "documents_total",
			Help:      "Documents processed per pipeline stage",
		},
		[]string{"stage", "result"},
	)

	EvaluationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pesto",
			Name:      "filter_evaluation_errors_total",
			Help:      "Predicate evaluations that failed and counted as non-matches",
		},
		[]string{"operator"},
	)

	RenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pesto",
			Name:      "render_duration_seconds",
			Help:      "Time to render a single document",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	BuildRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pesto",
			Name:      "build_runs_total",
			Help:      "Completed build runs",
		},
		[]string{"status"}, // "ok" / "error"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers the pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentsTotal)
	prometheus.MustRegister(EvaluationErrorsTotal)
	prometheus.MustRegister(RenderDuration)
	prometheus.MustRegister(BuildRunsTotal)
	pipelineMetricsRegistered = true
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
