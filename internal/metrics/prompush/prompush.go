// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common run labels (job, step, status) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead of
//     exposing an HTTP scrape endpoint, since csvpivot runs are short-lived
//     batch jobs with nothing to scrape between runs.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the core
// pipeline.
package prompush

import (
	"fmt"

	"csvpivot/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Step-level metrics
	stepCounter  *prometheus.CounterVec // "csvpivot_step_total"
	stepDuration *prometheus.SummaryVec // "csvpivot_step_duration_seconds"

	// Row-level metrics
	rowCounter    *prometheus.CounterVec // "csvpivot_rows_total"
	chunkCounter  prometheus.Counter     // "csvpivot_chunks_total"
	chunkDuration prometheus.Summary     // "csvpivot_chunk_duration_seconds"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "csvpivot"
	}

	reg := prometheus.NewRegistry()

	// job is the Pushgateway grouping key; step and status stay dynamic.
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvpivot_step_total",
			Help: "Total number of run stage executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "csvpivot_step_duration_seconds",
			Help:       "Duration of run stages in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)

	// ROW metrics: kind (parsed, row_errors, sampled_out, deduped, output).
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvpivot_rows_total",
			Help: "Row-level counts per kind (parsed, row_errors, sampled_out, etc.).",
		},
		[]string{"kind"},
	)

	// CHUNK metrics: simple counter per job (job is grouping label via Pushgateway).
	chunkCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "csvpivot_chunks_total",
			Help: "Total number of source chunks read for this run.",
		},
	)
	chunkDuration := prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name:       "csvpivot_chunk_duration_seconds",
			Help:       "Wall time spent reading and processing each source chunk.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(chunkCounter); err != nil {
		return nil, fmt.Errorf("prompush: register chunk counter: %w", err)
	}
	if err := reg.Register(chunkDuration); err != nil {
		return nil, fmt.Errorf("prompush: register chunk summary: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		rowCounter:    rowCounter,
		chunkCounter:  chunkCounter,
		chunkDuration: chunkDuration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "csvpivot_step_total":
		if b.stepCounter == nil {
			return
		}
		step := labels["step"]
		status := labels["status"]
		b.stepCounter.WithLabelValues(step, status).Add(delta)

	case "csvpivot_rows_total":
		if b.rowCounter == nil {
			return
		}
		kind := labels["kind"]
		b.rowCounter.WithLabelValues(kind).Add(delta)

	case "csvpivot_chunks_total":
		if b.chunkCounter == nil {
			return
		}
		b.chunkCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case "csvpivot_step_duration_seconds":
		if b.stepDuration == nil {
			return
		}
		step := labels["step"]
		status := labels["status"]
		b.stepDuration.WithLabelValues(step, status).Observe(value)

	case "csvpivot_chunk_duration_seconds":
		if b.chunkDuration == nil {
			return
		}
		b.chunkDuration.Observe(value)

	default:
		// unknown metric name: ignore
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
