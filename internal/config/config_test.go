// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package config

import (
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8580 {
		t.Errorf("Server.Port = %d, want 8580", cfg.Server.Port)
	}
	if cfg.Moxfield.BaseURL != "https://api2.moxfield.com" {
		t.Errorf("Moxfield.BaseURL = %q", cfg.Moxfield.BaseURL)
	}
	if cfg.Moxfield.MaxAttempts != 3 {
		t.Errorf("Moxfield.MaxAttempts = %d, want 3", cfg.Moxfield.MaxAttempts)
	}
	if cfg.Moxfield.RetryBackoffBase != 750*time.Millisecond {
		t.Errorf("Moxfield.RetryBackoffBase = %v, want 750ms", cfg.Moxfield.RetryBackoffBase)
	}
	if cfg.Moxfield.DetailConcurrency != 4 {
		t.Errorf("Moxfield.DetailConcurrency = %d, want 4", cfg.Moxfield.DetailConcurrency)
	}
	if cfg.Moxfield.PageSize != 100 {
		t.Errorf("Moxfield.PageSize = %d, want 100", cfg.Moxfield.PageSize)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DECKMIRROR_SERVER_PORT", "9999")
	t.Setenv("DECKMIRROR_MOXFIELD_MAX_ATTEMPTS", "5")
	t.Setenv("DECKMIRROR_MOXFIELD_DETAIL_CONCURRENCY", "8")
	t.Setenv("DECKMIRROR_LOG_LEVEL", "debug")
	t.Setenv("DECKMIRROR_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Moxfield.MaxAttempts != 5 {
		t.Errorf("Moxfield.MaxAttempts = %d, want 5", cfg.Moxfield.MaxAttempts)
	}
	if cfg.Moxfield.DetailConcurrency != 8 {
		t.Errorf("Moxfield.DetailConcurrency = %d, want 8", cfg.Moxfield.DetailConcurrency)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestUnknownEnvironmentVariablesAreIgnored(t *testing.T) {
	t.Setenv("DECKMIRROR_NOT_A_REAL_KEY", "boom")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v, unknown variables must be dropped", err)
	}
}

func TestValidationRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Moxfield.MaxAttempts = 0 }},
		{"excessive attempts", func(c *Config) { c.Moxfield.MaxAttempts = 50 }},
		{"zero concurrency", func(c *Config) { c.Moxfield.DetailConcurrency = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad base url", func(c *Config) { c.Moxfield.BaseURL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
