// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

// Package config defines the Deckmirror runtime configuration and its
// layered loading (defaults, optional YAML file, environment variables).
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Deckmirror server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Moxfield MoxfieldConfig `koanf:"moxfield"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`

	// RateLimit is the per-client request budget per minute for the API
	// routes. 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`

	// CORSOrigins lists the origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`
}

// MoxfieldConfig holds the upstream Moxfield client settings.
type MoxfieldConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// MaxAttempts bounds the request executor's attempt loop, first try
	// included.
	MaxAttempts int `koanf:"max_attempts" validate:"min=1,max=10"`

	// RetryBackoffBase is the delay before the second attempt; it doubles
	// for every attempt after that.
	RetryBackoffBase time.Duration `koanf:"retry_backoff_base" validate:"min=0"`

	// PageSize is the page length requested from the deck listing endpoint.
	PageSize int `koanf:"page_size" validate:"min=1,max=100"`

	// DetailConcurrency caps simultaneous in-flight deck detail requests.
	// Deliberately small: Moxfield rate-limits aggressively.
	DetailConcurrency int `koanf:"detail_concurrency" validate:"min=1,max=32"`

	// RequestsPerSecond paces all upstream requests. 0 disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`

	// BreakerEnabled guards the upstream with a circuit breaker so a dead
	// Moxfield does not tie up every caller in retry loops.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// CacheConfig holds the embedded cache store settings.
type CacheConfig struct {
	// Dir is the BadgerDB data directory. Ignored when InMemory is set.
	Dir string `koanf:"dir"`

	// InMemory runs the store without disk persistence. Used by tests and
	// throwaway deployments.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often the value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=1m"`

	// GCDiscardRatio is Badger's reclaim threshold for value-log files.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8580,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second, // full syncs can take a while
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
			CORSOrigins:     []string{"http://localhost:3170", "http://127.0.0.1:3170"},
		},
		Moxfield: MoxfieldConfig{
			BaseURL:           "https://api2.moxfield.com",
			Timeout:           15 * time.Second,
			MaxAttempts:       3,
			RetryBackoffBase:  750 * time.Millisecond,
			PageSize:          100,
			DetailConcurrency: 4,
			RequestsPerSecond: 0,
			BreakerEnabled:    true,
		},
		Cache: CacheConfig{
			Dir:            "/data/deckmirror",
			InMemory:       false,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration bounds. Returns a descriptive error for
// the first invalid field encountered.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config field %s: failed %q constraint", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}
