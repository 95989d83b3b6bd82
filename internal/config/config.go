// Package config provides environment-driven configuration for the statistics service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL Secret
	DBMaxConns  int
	Port        string
	ListenHost  string
	// MetricsPort, when set, serves /metrics on a separate loopback listener.
	MetricsPort string
	CORSOrigins []string
	LogLevel    string

	SourceBaseURL   string
	ScrapeStartYear int
	ScrapeEndYear   int
	ScrapeTimeout   time.Duration
	ScrapeUserAgent string
	PageCacheSize   int
	IngestOnStartup bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		Port:            envOrDefault("PORT", "3040"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort:     envOrDefault("METRICS_PORT", ""),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		SourceBaseURL:   envOrDefault("SOURCE_BASE_URL", "http://vitibrasil.cnpuv.embrapa.br/index.php"),
		ScrapeUserAgent: envOrDefault("SCRAPE_USER_AGENT", "vitiapi/"+Version),
	}

	var err error

	if cfg.DBMaxConns, err = envInt("DB_MAX_CONNS", 10, 2, 200); err != nil {
		return nil, err
	}

	if cfg.ScrapeStartYear, err = envInt("SCRAPE_START_YEAR", 1970, 1970, 2100); err != nil {
		return nil, err
	}

	if cfg.ScrapeEndYear, err = envInt("SCRAPE_END_YEAR", 2023, 1970, 2100); err != nil {
		return nil, err
	}

	if cfg.PageCacheSize, err = envInt("PAGE_CACHE_SIZE", 256, 1, 100000); err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(envOrDefault("SCRAPE_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("SCRAPE_TIMEOUT must be a duration: %w", err)
	}
	cfg.ScrapeTimeout = timeout

	ingest, err := strconv.ParseBool(envOrDefault("INGEST_ON_STARTUP", "true"))
	if err != nil {
		return nil, fmt.Errorf("INGEST_ON_STARTUP must be a boolean: %w", err)
	}
	cfg.IngestOnStartup = ingest

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the metrics listen address, or "" when metrics share the API listener.
func (c *Config) MetricsAddr() string {
	if c.MetricsPort == "" {
		return ""
	}

	return "127.0.0.1:" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func envInt(key string, fallback, lo, hi int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}

	return v, nil
}
