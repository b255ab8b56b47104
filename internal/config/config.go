// Package config defines the site server configuration and how it is loaded.
//
// Precedence, lowest to highest: built-in defaults, an optional YAML file
// (-config), SITE_* environment variables, command-line flags.
//
// Example file:
//
//	addr: ":8080"
//	storage:
//	  kind: sqlite
//	  dsn: /var/lib/site/leads.db
//	ratelimit:
//	  kind: redis
//	  redis_addr: redis:6379
//	cors_origins: ["https://tiai-solutions.com"]
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site is the complete server configuration.
type Site struct {
	Addr        string    `yaml:"addr" json:"addr"`
	Storage     Storage   `yaml:"storage" json:"storage"`
	RateLimit   RateLimit `yaml:"ratelimit" json:"ratelimit"`
	DataDir     string    `yaml:"data_dir" json:"data_dir"`
	CORSOrigins []string  `yaml:"cors_origins" json:"cors_origins"`
	Log         Log       `yaml:"log" json:"log"`
	Metrics     Metrics   `yaml:"metrics" json:"metrics"`
}

// Storage selects the lead repository backend.
type Storage struct {
	// Kind is "memory", "sqlite" or "postgres".
	Kind  string `yaml:"kind" json:"kind"`
	DSN   string `yaml:"dsn" json:"dsn"`
	Table string `yaml:"table" json:"table"`
}

// RateLimit selects where request counters live.
type RateLimit struct {
	// Kind is "memory" or "redis".
	Kind      string `yaml:"kind" json:"kind"`
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Metrics selects where counters and timings go.
type Metrics struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Backend is "prometheus" (scraped at /metrics) or "datadog" (DogStatsD).
	Backend string `yaml:"backend" json:"backend"`
	// PushURL, when set, is a Prometheus Pushgateway flushed on shutdown.
	PushURL string `yaml:"push_url" json:"push_url"`
	// StatsdAddr is the DogStatsD agent for the datadog backend.
	StatsdAddr string `yaml:"statsd_addr" json:"statsd_addr"`
}

// Metrics backends.
const (
	MetricsPrometheus = "prometheus"
	MetricsDatadog    = "datadog"
)

// Default returns the configuration used when nothing is set.
func Default() Site {
	return Site{
		Addr:        ":8080",
		Storage:     Storage{Kind: "memory"},
		RateLimit:   RateLimit{Kind: "memory", KeyPrefix: "site:"},
		DataDir:     "public/data",
		CORSOrigins: []string{"*"},
		Log:         Log{Level: "info", Format: "json"},
		Metrics:     Metrics{Enabled: true, Backend: MetricsPrometheus},
	}
}

// LoadFile merges the YAML document at path over s.
func LoadFile(path string, s *Site) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, s); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// env names, in flag order.
const (
	EnvAddr           = "SITE_ADDR"
	EnvStorageKind    = "SITE_STORAGE_KIND"
	EnvStorageDSN     = "SITE_STORAGE_DSN"
	EnvRateLimitKind  = "SITE_RATELIMIT_KIND"
	EnvRedisAddr      = "SITE_REDIS_ADDR"
	EnvDataDir        = "SITE_DATA_DIR"
	EnvCORSOrigins    = "SITE_CORS_ORIGINS"
	EnvLogLevel       = "SITE_LOG_LEVEL"
	EnvLogFormat      = "SITE_LOG_FORMAT"
	EnvMetrics        = "SITE_METRICS"
	EnvMetricsBackend = "SITE_METRICS_BACKEND"
	EnvStatsdAddr     = "SITE_STATSD_ADDR"
	EnvConfig         = "SITE_CONFIG"
)

// LoadFromArgs builds a Site from args, getenv and the optional -config file.
// fs must be fresh; LoadFromArgs defines its flags on it.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (Site, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	// The file has to be read before flag defaults are computed, so -config
	// is located with a first, lenient pass.
	s := Default()
	if path := findConfigArg(args, getenv(EnvConfig)); path != "" {
		if err := LoadFile(path, &s); err != nil {
			return Site{}, err
		}
	}
	if err := applyEnv(&s, getenv); err != nil {
		return Site{}, err
	}

	var cors string
	fs.String("config", getenv(EnvConfig), "YAML config file")
	fs.StringVar(&s.Addr, "addr", s.Addr, "listen address")
	fs.StringVar(&s.Storage.Kind, "storage", s.Storage.Kind, "lead storage: memory, sqlite, postgres")
	fs.StringVar(&s.Storage.DSN, "dsn", s.Storage.DSN, "storage DSN")
	fs.StringVar(&s.RateLimit.Kind, "ratelimit", s.RateLimit.Kind, "rate limit store: memory, redis")
	fs.StringVar(&s.RateLimit.RedisAddr, "redis", s.RateLimit.RedisAddr, "redis address for -ratelimit=redis")
	fs.StringVar(&s.DataDir, "data-dir", s.DataDir, "directory served under /data/")
	fs.StringVar(&cors, "cors", strings.Join(s.CORSOrigins, ","), "comma-separated allowed origins")
	fs.StringVar(&s.Log.Level, "log-level", s.Log.Level, "debug, info, warn, error")
	fs.StringVar(&s.Log.Format, "log-format", s.Log.Format, "json or console")
	fs.BoolVar(&s.Metrics.Enabled, "metrics", s.Metrics.Enabled, "record metrics")
	fs.StringVar(&s.Metrics.Backend, "metrics-backend", s.Metrics.Backend, "prometheus or datadog")
	fs.StringVar(&s.Metrics.StatsdAddr, "statsd", s.Metrics.StatsdAddr, "DogStatsD address for -metrics-backend=datadog")
	if err := fs.Parse(args); err != nil {
		return Site{}, err
	}
	s.CORSOrigins = splitList(cors)
	return s, nil
}

func findConfigArg(args []string, def string) string {
	for i, a := range args {
		a = strings.TrimLeft(a, "-")
		if v, ok := strings.CutPrefix(a, "config="); ok {
			return v
		}
		if a == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return def
}

func applyEnv(s *Site, getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&s.Addr, EnvAddr)
	set(&s.Storage.Kind, EnvStorageKind)
	set(&s.Storage.DSN, EnvStorageDSN)
	set(&s.RateLimit.Kind, EnvRateLimitKind)
	set(&s.RateLimit.RedisAddr, EnvRedisAddr)
	set(&s.DataDir, EnvDataDir)
	set(&s.Log.Level, EnvLogLevel)
	set(&s.Log.Format, EnvLogFormat)
	set(&s.Metrics.Backend, EnvMetricsBackend)
	set(&s.Metrics.StatsdAddr, EnvStatsdAddr)
	if v := strings.TrimSpace(getenv(EnvCORSOrigins)); v != "" {
		s.CORSOrigins = splitList(v)
	}
	if v := strings.TrimSpace(getenv(EnvMetrics)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvMetrics, v, err)
		}
		s.Metrics.Enabled = b
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
