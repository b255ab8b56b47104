package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block startup.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to operators but does not block startup.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors filters issues down to SeverityError.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

var (
	storageKinds   = []string{"memory", "sqlite", "postgres"}
	rateLimitKinds = []string{"memory", "redis"}
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"json", "console", "text"}
	metricsKinds   = []string{MetricsPrometheus, MetricsDatadog}
)

// Validate performs static checks over s. It does not mutate s.
func Validate(s Site) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		add(SeverityError, "addr", "listen address %q is not host:port: %v", s.Addr, err)
	}

	switch {
	case !slices.Contains(storageKinds, s.Storage.Kind):
		add(SeverityError, "storage.kind", "unsupported kind %q (want one of %s)", s.Storage.Kind, strings.Join(storageKinds, ", "))
	case s.Storage.Kind != "memory" && strings.TrimSpace(s.Storage.DSN) == "":
		add(SeverityError, "storage.dsn", "dsn is required for storage kind %q", s.Storage.Kind)
	case s.Storage.Kind == "memory":
		add(SeverityWarning, "storage.kind", "memory storage loses every lead on restart")
	}

	switch {
	case !slices.Contains(rateLimitKinds, s.RateLimit.Kind):
		add(SeverityError, "ratelimit.kind", "unsupported kind %q (want one of %s)", s.RateLimit.Kind, strings.Join(rateLimitKinds, ", "))
	case s.RateLimit.Kind == "redis" && s.RateLimit.RedisAddr == "":
		add(SeverityError, "ratelimit.redis_addr", "redis address is required when ratelimit.kind is redis")
	}

	if strings.TrimSpace(s.DataDir) == "" {
		add(SeverityWarning, "data_dir", "no data directory; /data/ will answer 404")
	}

	for i, o := range s.CORSOrigins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			add(SeverityError, fmt.Sprintf("cors_origins[%d]", i), "origin %q must be scheme://host[:port]", o)
		}
	}
	if len(s.CORSOrigins) == 0 {
		add(SeverityWarning, "cors_origins", "no origins allowed; browsers on other hosts cannot call /api")
	}

	if !slices.Contains(logLevels, strings.ToLower(s.Log.Level)) {
		add(SeverityError, "log.level", "unknown level %q", s.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(s.Log.Format)) {
		add(SeverityError, "log.format", "unknown format %q", s.Log.Format)
	}

	if s.Metrics.Enabled {
		switch {
		case !slices.Contains(metricsKinds, s.Metrics.Backend):
			add(SeverityError, "metrics.backend", "unsupported backend %q (want one of %s)", s.Metrics.Backend, strings.Join(metricsKinds, ", "))
		case s.Metrics.Backend == MetricsDatadog && strings.TrimSpace(s.Metrics.StatsdAddr) == "":
			add(SeverityError, "metrics.statsd_addr", "statsd address is required when metrics.backend is datadog")
		case s.Metrics.Backend == MetricsDatadog && s.Metrics.PushURL != "":
			add(SeverityWarning, "metrics.push_url", "push url is ignored by the datadog backend")
		}
	}
	if s.Metrics.PushURL != "" {
		if u, err := url.Parse(s.Metrics.PushURL); err != nil || u.Scheme == "" || u.Host == "" {
			add(SeverityError, "metrics.push_url", "push url %q is not absolute", s.Metrics.PushURL)
		}
	}
	return issues
}
