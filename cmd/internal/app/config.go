package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all runtime configuration.
//
// Values are layered: built-in defaults, then the optional YAML file, then
// LIFTLOG_* environment variables.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes"`

	DatabaseURL string `yaml:"database_url"`
	DBMaxConns  int32  `yaml:"db_max_conns"`
	DBMinConns  int32  `yaml:"db_min_conns"`
	DBMigrate   bool   `yaml:"db_migrate"`

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool `yaml:"readiness_require_db"`

	CORSAllowedOrigins   []string `yaml:"cors_allowed_origins"`
	CORSAllowCredentials bool     `yaml:"cors_allow_credentials"`
	CORSMaxAgeSeconds    int      `yaml:"cors_max_age_seconds"`

	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:  "0.0.0.0:8080",
		LogLevel:  "info",
		LogFormat: "json",

		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxHeaderBytes:    1 << 20,

		DBMaxConns: 10,
		DBMigrate:  true,

		CORSMaxAgeSeconds: 600,
		MetricsEnabled:    true,
	}
}

// LoadConfig builds a Config from defaults, the YAML file at path (skipped
// when path is empty) and the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := decodeYAML(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func decodeYAML(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = EnvString("LIFTLOG_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = EnvString("LIFTLOG_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = EnvString("LIFTLOG_LOG_FORMAT", cfg.LogFormat)

	cfg.ReadHeaderTimeout = EnvDuration("LIFTLOG_HTTP_READ_HEADER_TIMEOUT", cfg.ReadHeaderTimeout)
	cfg.ReadTimeout = EnvDuration("LIFTLOG_HTTP_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = EnvDuration("LIFTLOG_HTTP_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = EnvDuration("LIFTLOG_HTTP_IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.ShutdownTimeout = EnvDuration("LIFTLOG_HTTP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.MaxHeaderBytes = EnvInt("LIFTLOG_HTTP_MAX_HEADER_BYTES", cfg.MaxHeaderBytes)

	cfg.DatabaseURL = EnvString("LIFTLOG_DATABASE_URL", cfg.DatabaseURL)
	cfg.DBMaxConns = EnvInt32("LIFTLOG_DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.DBMinConns = EnvInt32("LIFTLOG_DB_MIN_CONNS", cfg.DBMinConns)
	cfg.DBMigrate = EnvBool("LIFTLOG_DB_MIGRATE", cfg.DBMigrate)

	cfg.ReadinessRequireDB = EnvBool("LIFTLOG_READINESS_REQUIRE_DB", cfg.ReadinessRequireDB)

	cfg.CORSAllowedOrigins = EnvList("LIFTLOG_CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.CORSAllowCredentials = EnvBool("LIFTLOG_CORS_ALLOW_CREDENTIALS", cfg.CORSAllowCredentials)
	cfg.CORSMaxAgeSeconds = EnvInt("LIFTLOG_CORS_MAX_AGE_SECONDS", cfg.CORSMaxAgeSeconds)

	cfg.MetricsEnabled = EnvBool("LIFTLOG_METRICS_ENABLED", cfg.MetricsEnabled)
}
