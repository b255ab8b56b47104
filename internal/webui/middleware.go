package webui

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tiai1/tiai-solutions/internal/metrics"
	"github.com/tiai1/tiai-solutions/internal/ratelimit"
)

const msgTooManyRequests = "Too many requests. Please try again later."

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// handle registers h under pattern with request logging and per-route metrics.
// The pattern, not the raw path, is the metric label.
func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h.ServeHTTP(rec, r)
		d := time.Since(start)

		metrics.RecordRequest(pattern, rec.code, d)
		lvl := zap.InfoLevel
		if rec.code >= 500 {
			lvl = zap.ErrorLevel
		}
		s.log.Log(lvl, "request",
			zap.String("method", r.Method),
			zap.String("route", pattern),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.code),
			zap.Duration("duration", d),
		)
	}))
}

// newCORS builds the cross-origin policy for /api. An empty origin list
// allows no origin at all.
func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Remaining"},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts)
}

// limit applies rule per client and route. When the limiter itself fails the
// request is let through and the failure logged.
func (s *Server) limit(route string, rule ratelimit.Rule, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.cfg.Limiter.Allow(r.Context(), route+"|"+clientIP(r), rule)
		if err != nil {
			s.log.Warn("rate limiter unavailable, allowing request", zap.String("route", route), zap.Error(err))
			next(w, r)
			return
		}
		if !d.Allowed {
			retry := int(math.Ceil(d.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		if d.Remaining >= 0 {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
