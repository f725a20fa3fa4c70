// Package config loads lambda's runtime configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendNone   = "none"
	BackendSQLite = "sqlite"
	BackendDgraph = "dgraph"
)

// Config holds settings shared by every lambda command. CLI flags override
// the values read from the environment.
type Config struct {
	Backend      string        `env:"LAMBDA_BACKEND" envDefault:"none"`
	DgraphURL    string        `env:"LAMBDA_DGRAPH_URL" envDefault:"http://localhost:8080"`
	DB           string        `env:"LAMBDA_DB" envDefault:"lambda.db"`
	Addr         string        `env:"LAMBDA_ADDR" envDefault:"127.0.0.1:8686"`
	LogLevel     string        `env:"LAMBDA_LOG_LEVEL" envDefault:"info"`
	LogFormat    string        `env:"LAMBDA_LOG_FORMAT" envDefault:"text"`
	OTLPEndpoint string        `env:"LAMBDA_OTLP_ENDPOINT"`
	HTTPTimeout  time.Duration `env:"LAMBDA_HTTP_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendSQLite, BackendDgraph:
	default:
		return fmt.Errorf("config: unknown backend %q (want none, sqlite or dgraph)", c.Backend)
	}
	if c.Backend == BackendSQLite && c.DB == "" {
		return fmt.Errorf("config: sqlite backend needs a database path")
	}
	if c.Backend == BackendDgraph && c.DgraphURL == "" {
		return fmt.Errorf("config: dgraph backend needs a url")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: http timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// Logger builds the slog logger described by LogLevel and LogFormat,
// writing to w.
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return level, nil
}
