// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the site and the dashboard engine.
//
// It exposes a narrow interface (Backend) for counters and timings, and a
// global backend that defaults to a no-op so instrumentation is always safe
// to call. Concrete systems live in subpackages (metrics/prom, metrics/datadog).
//
// Nothing recorded here carries user data: labels are limited to job, step,
// route, status and lead kind.
package metrics

import (
	"strconv"
	"sync/atomic"
	"time"
)

// Metric names understood by backends.
const (
	StepTotal       = "site_step_total"
	StepDuration    = "site_step_duration_seconds"
	RowsTotal       = "site_rows_total"
	RequestTotal    = "site_http_requests_total"
	RequestDuration = "site_http_request_duration_seconds"
	LeadTotal       = "site_leads_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

// Nop returns the backend that discards everything, the default.
func Nop() Backend { return nopBackend{} }

type holder struct{ Backend }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{nopBackend{}}) }

func backend() Backend { return current.Load().Backend }

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	current.Store(&holder{b})
}

// Flush delegates to the current backend.
func Flush() error {
	return backend().Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStep measures latency and success/failure of one step of a job,
// e.g. ("dashboard", "parse").
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status(err),
	}
	b := backend()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind
// ("parsed", "skipped", ...). Non-positive deltas are ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordRequest counts one HTTP request. route is the mux pattern, never the
// raw path.
func RecordRequest(route string, code int, d time.Duration) {
	lbls := Labels{
		"route": route,
		"code":  strconv.Itoa(code),
	}
	b := backend()
	b.IncCounter(RequestTotal, 1, lbls)
	b.ObserveHistogram(RequestDuration, d.Seconds(), Labels{"route": route})
}

// RecordLead counts an accepted lead by kind ("contact", "download", ...).
func RecordLead(kind string) {
	backend().IncCounter(LeadTotal, 1, Labels{"kind": kind})
}
