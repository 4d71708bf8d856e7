// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A pipeline run is a batch job with no scrape endpoint, so
// collected metrics are pushed once at the end of the run.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Haashiraaa/data-analysis-projects/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend. The pipeline job is
// the Pushgateway grouping key, so collectors do not carry a job label.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string
	reg        *prometheus.Registry

	stageCounter   *prometheus.CounterVec // tidy_stage_total{stage,status}
	stageDuration  *prometheus.SummaryVec // tidy_stage_duration_seconds{stage,status}
	rowCounter     *prometheus.CounterVec // tidy_rows_total{kind}
	findingCounter *prometheus.CounterVec // tidy_findings_total{severity}
}

// NewBackend constructs a Pushgateway backend. An empty jobName becomes
// "tidy".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tidy"
	}

	reg := prometheus.NewRegistry()

	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StageTotal,
			Help: "Pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StageDuration,
			Help:       "Duration of pipeline stages in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts per kind (loaded, dropped, saved).",
		},
		[]string{"kind"},
	)
	findingCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.FindingsTotal,
			Help: "Validation and coercion findings per severity.",
		},
		[]string{"severity"},
	)

	for _, c := range []prometheus.Collector{stageCounter, stageDuration, rowCounter, findingCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		stageCounter:   stageCounter,
		stageDuration:  stageDuration,
		rowCounter:     rowCounter,
		findingCounter: findingCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StageTotal:
		if b.stageCounter == nil {
			return
		}
		b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.FindingsTotal:
		if b.findingCounter == nil {
			return
		}
		b.findingCounter.WithLabelValues(labels["severity"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StageDuration || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
