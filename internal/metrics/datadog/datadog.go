// Package datadog implements a DogStatsD backend for the metrics package.
//
// It adapts the generic metrics.Backend interface to Datadog's DogStatsD
// protocol using the official statsd client. Metric labels become Datadog
// tags, counters become Count metrics, and step durations land as
// Histogram metrics, so one ingest run shows up in Datadog the same way it
// does on a Pushgateway.
//
// The rest of the project depends only on metrics.Backend; this package
// exists so Datadog-specific configuration stays out of the pipeline code.
package datadog

import (
	"fmt"
	"sort"

	"csvpivot/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Defaults applied by NewBackend when the corresponding Config field is
// empty. The address matches a local Datadog agent's standard DogStatsD
// port.
const (
	DefaultAddr      = "127.0.0.1:8125"
	DefaultNamespace = "csvpivot."
)

// Config holds DogStatsD backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or
	// "unix:///path/to/socket". Empty means DefaultAddr.
	Addr string

	// Namespace prefixes all metric names. Empty means DefaultNamespace.
	Namespace string

	// Job names the run; it is attached to every metric as a "job" tag,
	// mirroring the Pushgateway job label.
	Job string

	// GlobalTags are additional tags applied to all metrics emitted by
	// this backend, e.g. []string{"env:prod"}.
	GlobalTags []string
}

// Backend is a DogStatsD implementation of metrics.Backend. Install it as
// the global backend via metrics.SetBackend.
type Backend struct {
	client statsdClient
}

// statsdClient is the slice of *statsd.Client this backend uses, split out
// so tests can observe emissions without a running agent.
type statsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Flush() error
	Close() error
}

// NewBackend constructs a DogStatsD metrics backend. Missing Addr and
// Namespace fall back to the package defaults.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	tags := append([]string(nil), cfg.GlobalTags...)
	if cfg.Job != "" {
		tags = append(tags, "job:"+cfg.Job)
	}

	c, err := statsd.New(cfg.Addr,
		statsd.WithNamespace(cfg.Namespace),
		statsd.WithTags(tags),
	)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// IncCounter implements metrics.Backend using a Count metric. DogStatsD
// counts are integral; fractional deltas are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Count(name, int64(delta), labelsToTags(labels), 1)
}

// ObserveHistogram implements metrics.Backend using a Histogram metric.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	b.client.Histogram(name, value, labelsToTags(labels), 1)
}

// Flush drains buffered metrics and closes the client. It is meant to run
// once at the end of a run, matching the Pushgateway backend's push-on-
// flush behavior.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	if err := b.client.Flush(); err != nil {
		b.client.Close()
		return err
	}
	return b.client.Close()
}

// labelsToTags converts labels into sorted "key:value" tag strings. The
// sort keeps emissions deterministic for the same label set.
func labelsToTags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for k, v := range lbls {
		out = append(out, k+":"+v)
	}
	sort.Strings(out)
	return out
}
