// Package datadog implements a Datadog backend for the metrics package.
//
// It adapts metrics.Backend to DogStatsD through the official statsd client.
// The site's metric names are rewritten to Datadog's dotted style under a
// namespace ("site_http_requests_total" becomes "site.http.requests.total")
// and labels become "key:value" tags.
package datadog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/tiai1/tiai-solutions/internal/metrics"
)

// DefaultNamespace prefixes every metric when Config.Namespace is empty.
const DefaultNamespace = "site"

// Config holds Datadog backend configuration.
type Config struct {
	// Addr is the DogStatsD address, e.g. "127.0.0.1:8125" or "unix:///path/to/socket".
	Addr string

	// Namespace is prepended to every metric name. Defaults to DefaultNamespace.
	Namespace string

	// GlobalTags are applied to every metric, e.g. []string{"env:prod"}.
	GlobalTags []string
}

// Backend is a Datadog implementation of metrics.Backend.
type Backend struct {
	client statsd.ClientInterface
}

// NewBackend dials the agent at cfg.Addr. DogStatsD over UDP is
// connectionless, so an absent agent is not an error here.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("datadog: Addr is required")
	}
	c, err := statsd.New(cfg.Addr, Options(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return New(c), nil
}

// Options are the statsd client options derived from cfg.
func Options(cfg Config) []statsd.Option {
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	opts := []statsd.Option{statsd.WithNamespace(ns)}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	return opts
}

// New wraps an existing client.
func New(c statsd.ClientInterface) *Backend { return &Backend{client: c} }

// Name maps a metrics package name to its Datadog name, without namespace.
func Name(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "site_"), "_", ".")
}

// IncCounter sends a Count. DogStatsD counts are integers; fractional deltas
// are truncated.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	_ = b.client.Count(Name(name), int64(delta), tags(labels), 1)
}

// ObserveHistogram sends a Histogram sample.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	_ = b.client.Histogram(Name(name), value, tags(labels), 1)
}

// Flush sends everything buffered by the client.
func (b *Backend) Flush() error {
	if err := b.client.Flush(); err != nil {
		return fmt.Errorf("datadog: flush: %w", err)
	}
	return nil
}

// Close flushes and releases the client. The backend is unusable afterwards.
func (b *Backend) Close() error { return b.client.Close() }

// tags renders labels as "key:value", sorted by key.
func tags(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	out := make([]string, 0, len(lbls))
	for _, k := range slices.Sorted(maps.Keys(lbls)) {
		out = append(out, k+":"+lbls[k])
	}
	return out
}
