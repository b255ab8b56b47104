// Package webui is the site's HTTP server: the landing and live dashboard
// pages, the template catalog, the lead-capture API and static JSON data.
//
// Routes:
//
//	GET  /                        → landing page
//	GET  /live-dashboard          → dashboard page (datasets never leave the browser)
//	GET  /api/health              → {"status":"healthy","timestamp":...}
//	GET  /api/dashboard/templates → template catalog
//	POST /api/contact             → contact form (5 per 5 minutes per client)
//	POST /api/lead                → lead event (10 per minute)
//	POST /api/download            → template download (10 per minute)
//	POST /api/calls               → call request (10 per minute)
//	GET  /api/calls/{id}/ics      → calendar invite for a stored call
//	GET  /data/{filename}         → JSON files from Config.DataDir
//	GET  /metrics                 → Prometheus exposition, when Config.Metrics is set
package webui

import (
	"context"
	_ "embed"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tiai1/tiai-solutions/internal/datasource/file"
	"github.com/tiai1/tiai-solutions/internal/logging"
	"github.com/tiai1/tiai-solutions/internal/ratelimit"
	"github.com/tiai1/tiai-solutions/internal/storage"
)

// Per-client limits on the lead-capture endpoints.
var (
	ContactRule = ratelimit.Rule{Limit: 5, Window: 5 * time.Minute}
	LeadRule    = ratelimit.Rule{Limit: 10, Window: time.Minute}
)

// Config controls server startup.
type Config struct {
	Addr string
	// Repo stores leads. Required.
	Repo storage.Repository
	// Limiter defaults to an in-process limiter.
	Limiter ratelimit.Limiter
	// DataDir is served under /data/. Empty disables it.
	DataDir     string
	CORSOrigins []string
	// Metrics, when non-nil, is mounted at /metrics.
	Metrics http.Handler
	Logger  *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg   Config
	mux   *http.ServeMux
	index *template.Template
	dash  *template.Template
	log   *zap.Logger
	now   func() time.Time
	cors  *cors.Cors
	http  *http.Server
}

// NewServer constructs a Server with routes and embedded templates.
func NewServer(cfg Config) *Server {
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemory()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{
		cfg:   cfg,
		mux:   http.NewServeMux(),
		index: template.Must(template.New("index").Parse(indexHTML)),
		dash:  template.Must(template.New("live-dashboard").Parse(dashboardHTML)),
		log:   logging.OrNop(cfg.Logger).Named("webui"),
		now:   cfg.Now,
		cors:  newCORS(cfg.CORSOrigins),
	}
	s.routes()
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.log),
	}
	return s
}

// Handler exposes the routed mux, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() {
	s.handle("GET /{$}", http.HandlerFunc(s.handleIndex))
	s.handle("GET /live-dashboard", http.HandlerFunc(s.handleDashboard))

	s.handle("OPTIONS /api/", s.cors.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	s.api("GET /api/health", s.handleHealth)
	s.api("GET /api/dashboard/templates", s.handleTemplates)
	s.api("POST /api/contact", s.limit("POST /api/contact", ContactRule, s.handleContact))
	s.api("POST /api/lead", s.limit("POST /api/lead", LeadRule, s.handleLead))
	s.api("POST /api/download", s.limit("POST /api/download", LeadRule, s.handleDownload))
	s.api("POST /api/calls", s.limit("POST /api/calls", LeadRule, s.handleCall))
	s.api("GET /api/calls/{id}/ics", s.handleCallICS)

	s.handle("GET /data/{filename}", http.HandlerFunc(s.handleDataFile))
	if s.cfg.Metrics != nil {
		s.handle("GET /metrics", s.cfg.Metrics)
	}
}

func (s *Server) api(pattern string, h http.HandlerFunc) {
	s.handle(pattern, s.cors.Handler(h))
}

// handleIndex renders the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, struct{ Year int }{s.now().Year()}); err != nil {
		s.log.Error("template error", zap.String("page", "index"), zap.Error(err))
	}
}

// handleDashboard renders the live dashboard shell. The page works on the
// visitor's data locally; nothing here accepts dataset content.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := struct {
		MaxMB     int64
		Templates []templateView
	}{
		MaxMB:     file.MaxUploadBytes >> 20,
		Templates: templateViews(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.dash.Execute(w, data); err != nil {
		s.log.Error("template error", zap.String("page", "live-dashboard"), zap.Error(err))
	}
}

// indexHTML is the embedded landing page.
//
//go:embed index.tmpl.html
var indexHTML string

//go:embed live_dashboard.tmpl.html
var dashboardHTML string
