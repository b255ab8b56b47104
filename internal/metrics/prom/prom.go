// Package prom implements a Prometheus backend for the metrics package.
//
// Collected metrics are exposed for scraping through Handler and, when a
// Pushgateway URL is configured, pushed on Flush. All Prometheus-specific
// dependencies stay in this package.
package prom

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/tiai1/tiai-solutions/internal/metrics"
)

// Backend is a Prometheus metrics.Backend.
type Backend struct {
	gatewayURL string // optional, e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	rowCounter   *prometheus.CounterVec

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	leadCounter     *prometheus.CounterVec
}

// NewBackend constructs a backend on a fresh registry. gatewayURL may be
// empty, in which case Flush is a no-op.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if jobName == "" {
		jobName = "site"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Total number of step executions, partitioned by job, step, and status.",
		},
		[]string{"job", "step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of steps in seconds, partitioned by job, step, and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"job", "step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Dataset rows per job and kind (parsed, skipped).",
		},
		[]string{"job", "kind"},
	)
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RequestTotal,
			Help: "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metrics.RequestDuration,
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	leadCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.LeadTotal,
			Help: "Accepted leads by kind.",
		},
		[]string{"kind"},
	)

	for _, c := range []prometheus.Collector{
		stepCounter, stepDuration, rowCounter,
		requestCounter, requestDuration, leadCounter,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:      gatewayURL,
		jobName:         jobName,
		reg:             reg,
		stepCounter:     stepCounter,
		stepDuration:    stepDuration,
		rowCounter:      rowCounter,
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		leadCounter:     leadCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["job"], labels["step"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["job"], labels["kind"]).Add(delta)

	case metrics.RequestTotal:
		if b.requestCounter == nil {
			return
		}
		b.requestCounter.WithLabelValues(labels["route"], labels["code"]).Add(delta)

	case metrics.LeadTotal:
		if b.leadCounter == nil {
			return
		}
		b.leadCounter.WithLabelValues(labels["kind"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDuration:
		if b.stepDuration == nil {
			return
		}
		b.stepDuration.WithLabelValues(labels["job"], labels["step"], labels["status"]).Observe(value)
	case metrics.RequestDuration:
		if b.requestDuration == nil {
			return
		}
		b.requestDuration.WithLabelValues(labels["route"]).Observe(value)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{Registry: b.reg})
}

// Flush pushes the registry to the Pushgateway, if one is configured.
func (b *Backend) Flush() error {
	if b.gatewayURL == "" {
		return nil
	}
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
