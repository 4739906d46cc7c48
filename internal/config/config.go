// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, store selection, upstream (Aryn) client settings, ingestion knobs
// and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendSupabase = "supabase" // PostgREST over SUPABASE_URL/SUPABASE_KEY
	BackendPostgres = "postgres" // direct SQL via DATABASE_URL
	BackendSQLite   = "sqlite"   // local file at DB_PATH
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// StoreConfig selects and parameterizes the relational store.
type StoreConfig struct {
	Backend     string        // STORE_BACKEND
	SupabaseURL string        // SUPABASE_URL (required)
	SupabaseKey string        // SUPABASE_KEY (required)
	Timeout     time.Duration // SUPABASE_TIMEOUT
	DatabaseURL string        // DATABASE_URL, postgres backend only
	DBPath      string        // DB_PATH, sqlite backend only
}

// ArynConfig parameterizes the document-intelligence client.
type ArynConfig struct {
	APIToken string        // ARYN_API_TOKEN (required)
	BaseURL  string        // ARYN_BASE_URL
	Timeout  time.Duration // ARYN_TIMEOUT
}

// IngestConfig drives batch document ingestion.
type IngestConfig struct {
	Glob            string  // DOCUMENTS_GLOB
	DocSetPrefix    string  // DOCSET_NAME_PREFIX
	IsolateFailures bool    // INGEST_ISOLATE_FAILURES
	RefreshDocSet   bool    // INGEST_REFRESH_DOCSET
	UploadRPS       float64 // INGEST_UPLOAD_RPS, 0 disables pacing
	EndpointEnabled bool    // INGEST_ENDPOINT_ENABLED
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	GzipEnabled    bool

	// App
	TestMode bool // TEST_MODE (required): canned query results, no upstream call
	Store    StoreConfig
	Aryn     ArynConfig
	Ingest   IngestConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. TEST_MODE, SUPABASE_URL,
// SUPABASE_KEY and ARYN_API_TOKEN have no defaults; a missing one is an error.
func Load() (Config, error) {
	missing := missingRequired("TEST_MODE", "SUPABASE_URL", "SUPABASE_KEY", "ARYN_API_TOKEN")
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 10*time.Minute),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		GzipEnabled:    getbool("GZIP_ENABLED", true),

		TestMode: strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_MODE")), "true"),
		Store: StoreConfig{
			Backend:     strings.ToLower(getenv("STORE_BACKEND", BackendSupabase)),
			SupabaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
			SupabaseKey: strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
			Timeout:     getdur("SUPABASE_TIMEOUT", 30*time.Second),
			DatabaseURL: getenv("DATABASE_URL", ""),
			DBPath:      getenv("DB_PATH", "relay.db"),
		},
		Aryn: ArynConfig{
			APIToken: strings.TrimSpace(os.Getenv("ARYN_API_TOKEN")),
			BaseURL:  strings.TrimRight(getenv("ARYN_BASE_URL", "https://api.aryn.cloud"), "/"),
			Timeout:  getdur("ARYN_TIMEOUT", 5*time.Minute),
		},
		Ingest: IngestConfig{
			Glob:            getenv("DOCUMENTS_GLOB", "documents/*.pdf"),
			DocSetPrefix:    getenv("DOCSET_NAME_PREFIX", "Hamlet - "),
			IsolateFailures: getbool("INGEST_ISOLATE_FAILURES", false),
			RefreshDocSet:   getbool("INGEST_REFRESH_DOCSET", false),
			UploadRPS:       getfloat("INGEST_UPLOAD_RPS", 0),
			EndpointEnabled: getbool("INGEST_ENDPOINT_ENABLED", true),
		},

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "docset-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.Store.Backend {
	case BackendSupabase:
	case BackendPostgres:
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	default:
		return cfg, errors.New("STORE_BACKEND must be one of: supabase, postgres, sqlite")
	}
	if cfg.Store.Timeout <= 0 || cfg.Aryn.Timeout <= 0 {
		return cfg, errors.New("SUPABASE_TIMEOUT and ARYN_TIMEOUT must be positive durations")
	}
	if strings.TrimSpace(cfg.Ingest.Glob) == "" {
		return cfg, errors.New("DOCUMENTS_GLOB must not be empty")
	}
	if cfg.Ingest.UploadRPS < 0 {
		return cfg, errors.New("INGEST_UPLOAD_RPS must be >= 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func missingRequired(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); !ok || strings.TrimSpace(v) == "" {
			out = append(out, k)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
