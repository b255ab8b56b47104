package main

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tiai1/tiai-solutions/internal/config"
	"github.com/tiai1/tiai-solutions/internal/metrics"
	"github.com/tiai1/tiai-solutions/internal/webui"
)

// fakeServer is a tiny test double implementing the server interface.
// With block set, ListenAndServe waits for Shutdown like a real server.
type fakeServer struct {
	err       error
	block     bool
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFake(err error, block bool) *fakeServer {
	return &fakeServer{err: err, block: block, stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.block {
		<-f.stopped
	}
	return f.err
}

func (f *fakeServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func noEnv(string) string { return "" }

// install swaps the hooks for the duration of the test. Tests using it do not
// run in parallel because the hooks are package globals.
func install(t *testing.T, fake *fakeServer) (*webui.Config, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	var got webui.Config

	origServer, origLogger := newServer, newLogger
	t.Cleanup(func() { newServer, newLogger = origServer, origLogger })

	newServer = func(cfg webui.Config) server {
		got = cfg
		return fake
	}
	newLogger = func(level, format string) (*zap.Logger, error) { return zap.New(core), nil }
	return &got, logs
}

// TestRun covers flag parsing, defaulting, logging, and error propagation.
func TestRun(t *testing.T) {
	cases := []struct {
		name       string
		args       []string
		listenErr  error
		wantAddr   string
		wantLogHas string
		wantErr    string
	}{
		{
			name:       "default address",
			args:       []string{"-metrics=false"},
			listenErr:  errors.New("boom"),
			wantAddr:   ":8080",
			wantLogHas: "listening",
			wantErr:    "boom",
		},
		{
			name:       "custom address via flag",
			args:       []string{"-addr", "127.0.0.1:9999"},
			wantAddr:   "127.0.0.1:9999",
			wantLogHas: "shutting down",
		},
		{
			name:    "unknown flag returns error",
			args:    []string{"-bogus"},
			wantErr: "flag provided but not defined",
		},
		{
			name:    "invalid configuration",
			args:    []string{"-storage", "mysql"},
			wantErr: "storage.kind",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fake := newFake(c.listenErr, false)
			got, logs := install(t, fake)

			err := run(context.Background(), c.args, noEnv)

			if c.wantAddr != "" && got.Addr != c.wantAddr {
				t.Fatalf("addr mismatch: got %q, want %q", got.Addr, c.wantAddr)
			}
			if c.wantLogHas != "" && logs.FilterMessage(c.wantLogHas).Len() == 0 {
				t.Fatalf("no %q log entry in %v", c.wantLogHas, logs.All())
			}
			if c.wantErr == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.wantErr != "" && (err == nil || !strings.Contains(err.Error(), c.wantErr)) {
				t.Fatalf("error = %v, want containing %q", err, c.wantErr)
			}
		})
	}
}

func TestRun_WiresDependencies(t *testing.T) {
	fake := newFake(nil, false)
	got, logs := install(t, fake)

	env := map[string]string{"SITE_CORS_ORIGINS": "https://tiai-solutions.com", "SITE_DATA_DIR": "/srv/data"}
	if err := run(context.Background(), nil, func(k string) string { return env[k] }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Repo == nil || got.Limiter == nil || got.Logger == nil {
		t.Fatalf("missing dependencies: %+v", got)
	}
	if got.Metrics == nil {
		t.Fatalf("metrics handler should be mounted by default")
	}
	if got.DataDir != "/srv/data" || len(got.CORSOrigins) != 1 {
		t.Fatalf("config not propagated: %+v", got)
	}
	// Memory storage is startable but warned about.
	if logs.FilterMessage("config").Len() == 0 {
		t.Fatalf("expected config warnings to be logged")
	}
	if fake.shutdowns.Load() != 1 {
		t.Fatalf("shutdown calls = %d, want 1", fake.shutdowns.Load())
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	fake := newFake(nil, true)
	install(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- run(ctx, []string{"-metrics=false"}, noEnv) }()

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	if fake.shutdowns.Load() != 1 {
		t.Fatalf("shutdown calls = %d, want 1", fake.shutdowns.Load())
	}
}

func TestRun_RedisUnreachable(t *testing.T) {
	install(t, newFake(nil, false))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := run(ctx, []string{"-metrics=false", "-ratelimit", "redis", "-redis", "127.0.0.1:1"}, noEnv)
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("error = %v, want redis dial failure", err)
	}
}

func TestRun_DatadogMetrics(t *testing.T) {
	fake := newFake(nil, false)
	got, _ := install(t, fake)
	t.Cleanup(func() { metrics.SetBackend(metrics.Nop()) })

	args := []string{"-metrics-backend", "datadog", "-statsd", "127.0.0.1:8125"}
	if err := run(context.Background(), args, noEnv); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got.Metrics != nil {
		t.Fatalf("datadog backend must not mount /metrics")
	}
}

func TestSetupMetrics(t *testing.T) {
	t.Cleanup(func() { metrics.SetBackend(metrics.Nop()) })

	h, closeFn, err := setupMetrics(config.Metrics{Enabled: false, Backend: config.MetricsDatadog})
	if err != nil || h != nil || closeFn() != nil {
		t.Fatalf("disabled metrics: h=%v err=%v", h, err)
	}

	h, closeFn, err = setupMetrics(config.Metrics{Enabled: true, Backend: config.MetricsPrometheus})
	if err != nil || h == nil {
		t.Fatalf("prometheus: h=%v err=%v", h, err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("prometheus close: %v", err)
	}

	if _, _, err := setupMetrics(config.Metrics{Enabled: true, Backend: config.MetricsDatadog}); err == nil {
		t.Fatalf("datadog without address should fail")
	}
}
