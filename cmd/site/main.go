// Command site serves the marketing site, the live dashboard page and the
// lead-capture API.
//
// Usage:
//
//	go run ./cmd/site -addr :8080 -storage sqlite -dsn ./leads.db
//
// Every flag can also be set through SITE_* environment variables or a YAML
// file passed with -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tiai1/tiai-solutions/internal/config"
	"github.com/tiai1/tiai-solutions/internal/logging"
	"github.com/tiai1/tiai-solutions/internal/metrics"
	"github.com/tiai1/tiai-solutions/internal/metrics/datadog"
	"github.com/tiai1/tiai-solutions/internal/metrics/prom"
	"github.com/tiai1/tiai-solutions/internal/ratelimit"
	"github.com/tiai1/tiai-solutions/internal/storage"
	_ "github.com/tiai1/tiai-solutions/internal/storage/all"
	"github.com/tiai1/tiai-solutions/internal/webui"
)

const shutdownTimeout = 10 * time.Second

// server is the subset of *webui.Server that run drives.
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Test hooks.
var (
	newServer = func(cfg webui.Config) server { return webui.NewServer(cfg) }
	newLogger = logging.New
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, "site:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, getenv func(string) string) error {
	fs := flag.NewFlagSet("site", flag.ContinueOnError)
	site, err := config.LoadFromArgs(fs, getenv, args)
	if err != nil {
		return err
	}

	issues := config.Validate(site)
	logger, err := newLogger(site.Log.Level, site.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if errs := config.Errors(issues); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return fmt.Errorf("invalid configuration: %w", errors.Join(joined...))
	}
	for _, iss := range issues {
		logger.Warn("config", zap.String("path", iss.Path), zap.String("issue", iss.Message))
	}

	repo, err := storage.New(ctx, storage.Config{Kind: site.Storage.Kind, DSN: site.Storage.DSN, Table: site.Storage.Table})
	if err != nil {
		return err
	}
	defer repo.Close()

	var limiter ratelimit.Limiter = ratelimit.NewMemory()
	if site.RateLimit.Kind == "redis" {
		rl, closeRedis, err := ratelimit.DialRedis(ctx, site.RateLimit.RedisAddr, site.RateLimit.KeyPrefix)
		if err != nil {
			return err
		}
		defer func() { _ = closeRedis() }()
		limiter = rl
	}

	metricsHandler, closeMetrics, err := setupMetrics(site.Metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeMetrics(); err != nil {
			logger.Warn("metrics flush", zap.Error(err))
		}
	}()

	srv := newServer(webui.Config{
		Addr:        site.Addr,
		Repo:        repo,
		Limiter:     limiter,
		DataDir:     site.DataDir,
		CORSOrigins: site.CORSOrigins,
		Metrics:     metricsHandler,
		Logger:      logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		logger.Info("listening",
			zap.String("addr", site.Addr),
			zap.String("storage", site.Storage.Kind),
			zap.String("ratelimit", site.RateLimit.Kind),
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, done := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer done()
		logger.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// setupMetrics installs the configured metrics backend. The handler is
// non-nil only for prometheus, which is scraped at /metrics.
func setupMetrics(m config.Metrics) (http.Handler, func() error, error) {
	nop := func() error { return nil }
	if !m.Enabled {
		return nil, nop, nil
	}
	switch m.Backend {
	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{Addr: m.StatsdAddr})
		if err != nil {
			return nil, nil, err
		}
		metrics.SetBackend(b)
		return nil, b.Close, nil
	default:
		b, err := prom.NewBackend("site", m.PushURL)
		if err != nil {
			return nil, nil, err
		}
		metrics.SetBackend(b)
		return b.Handler(), metrics.Flush, nil
	}
}
