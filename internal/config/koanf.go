// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/deckmirror/config.yaml",
	"/etc/deckmirror/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "DECKMIRROR_CONFIG"

// envPrefix is stripped from environment variables before mapping them to
// config paths.
const envPrefix = "DECKMIRROR_"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// CORS origins arrive as a comma-separated string from the environment.
	if raw, ok := k.Get("server.cors_origins").(string); ok {
		var origins []string
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		if err := k.Set("server.cors_origins", origins); err != nil {
			return nil, fmt.Errorf("failed to normalize cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names (prefix stripped, lowercased)
// to config paths. Flat names avoid guessing where section boundaries fall
// in multi-word keys.
var envMappings = map[string]string{
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_rate_limit":       "server.rate_limit",
	"cors_origins":            "server.cors_origins",

	"moxfield_base_url":            "moxfield.base_url",
	"moxfield_timeout":             "moxfield.timeout",
	"moxfield_max_attempts":        "moxfield.max_attempts",
	"moxfield_retry_backoff_base":  "moxfield.retry_backoff_base",
	"moxfield_page_size":           "moxfield.page_size",
	"moxfield_detail_concurrency":  "moxfield.detail_concurrency",
	"moxfield_requests_per_second": "moxfield.requests_per_second",
	"moxfield_breaker_enabled":     "moxfield.breaker_enabled",

	"cache_dir":              "cache.dir",
	"cache_in_memory":        "cache.in_memory",
	"cache_gc_interval":      "cache.gc_interval",
	"cache_gc_discard_ratio": "cache.gc_discard_ratio",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransform maps DECKMIRROR_* environment variables to config paths.
// Unknown variables are dropped so unrelated environment noise cannot
// shadow config keys.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}
