package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validSite() Site {
	s := Default()
	s.Storage = Storage{Kind: "sqlite", DSN: "/tmp/leads.db"}
	s.CORSOrigins = []string{"https://tiai-solutions.com"}
	return s
}

/*
TestValidate_ValidMinimal verifies that a production-like config yields no
issues at all.
*/
func TestValidate_ValidMinimal(t *testing.T) {
	if issues := Validate(validSite()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

/*
TestValidate_Defaults verifies that the defaults are startable: only warnings.
*/
func TestValidate_Defaults(t *testing.T) {
	issues := Validate(Default())
	if errs := Errors(issues); len(errs) != 0 {
		t.Fatalf("defaults should not error: %+v", errs)
	}
	if !hasIssue(t, issues, SeverityWarning, "storage.kind", "loses every lead") {
		t.Fatalf("expected memory storage warning; got %+v", issues)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Site)
		path   string
		substr string
	}{
		{"bad addr", func(s *Site) { s.Addr = "8080" }, "addr", "not host:port"},
		{"unknown storage", func(s *Site) { s.Storage.Kind = "mysql" }, "storage.kind", "unsupported kind"},
		{"missing dsn", func(s *Site) { s.Storage.DSN = " " }, "storage.dsn", "dsn is required"},
		{"unknown ratelimit", func(s *Site) { s.RateLimit.Kind = "etcd" }, "ratelimit.kind", "unsupported kind"},
		{"redis without addr", func(s *Site) { s.RateLimit = RateLimit{Kind: "redis"} }, "ratelimit.redis_addr", "required"},
		{"bad origin", func(s *Site) { s.CORSOrigins = []string{"tiai-solutions.com"} }, "cors_origins[0]", "scheme://host"},
		{"origin with path", func(s *Site) { s.CORSOrigins = []string{"https://a.com/x"} }, "cors_origins[0]", "scheme://host"},
		{"bad level", func(s *Site) { s.Log.Level = "loud" }, "log.level", "unknown level"},
		{"bad format", func(s *Site) { s.Log.Format = "xml" }, "log.format", "unknown format"},
		{"relative push url", func(s *Site) { s.Metrics.PushURL = "pushgateway:9091" }, "metrics.push_url", "not absolute"},
		{"unknown metrics backend", func(s *Site) { s.Metrics.Backend = "graphite" }, "metrics.backend", "unsupported backend"},
		{"datadog without addr", func(s *Site) { s.Metrics.Backend = MetricsDatadog }, "metrics.statsd_addr", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSite()
			tt.mutate(&s)
			issues := Validate(s)
			if !hasIssue(t, issues, SeverityError, tt.path, tt.substr) {
				t.Fatalf("expected error at %s containing %q; got %+v", tt.path, tt.substr, issues)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	s := validSite()
	s.DataDir = ""
	s.CORSOrigins = nil
	issues := Validate(s)
	if len(Errors(issues)) != 0 {
		t.Fatalf("expected warnings only, got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "data_dir", "404") {
		t.Fatalf("expected data_dir warning; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "cors_origins", "no origins") {
		t.Fatalf("expected cors warning; got %+v", issues)
	}
}

func TestValidate_MetricsDisabledSkipsBackend(t *testing.T) {
	s := validSite()
	s.Metrics = Metrics{Enabled: false, Backend: "graphite"}
	if errs := Errors(Validate(s)); len(errs) != 0 {
		t.Fatalf("disabled metrics should not be checked: %+v", errs)
	}
}

func TestIssue_Error(t *testing.T) {
	got := Issue{Severity: SeverityError, Path: "addr", Message: "bad"}.Error()
	if got != "error at addr: bad" {
		t.Fatalf("Error() = %q", got)
	}
}
