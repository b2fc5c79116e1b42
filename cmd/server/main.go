// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

// Package main is the entry point for the Deckmirror server.
//
// Deckmirror is a caching proxy for public Moxfield user and deck data. It
// syncs a user's decks from the Moxfield API on demand, serves the result,
// and keeps the last successful snapshot in an embedded BadgerDB cache so
// reads survive Moxfield outages and rate limits.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional config.yaml, environment variables (Koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Cache store: embedded BadgerDB
//  4. Moxfield client: retrying HTTP client with circuit breaker and rate limiter
//  5. Sync orchestrator: live syncs, cached reads, background persistence
//  6. HTTP server: chi router under a suture supervision tree
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables (DECKMIRROR_*), config file,
// built-in defaults.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops accepting
// connections, waits for in-flight requests and pending cache writes, and
// closes the store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/edh-podlog/deckmirror/internal/api"
	"github.com/edh-podlog/deckmirror/internal/config"
	"github.com/edh-podlog/deckmirror/internal/logging"
	"github.com/edh-podlog/deckmirror/internal/store"
	"github.com/edh-podlog/deckmirror/internal/supervisor"
	"github.com/edh-podlog/deckmirror/internal/supervisor/services"
	"github.com/edh-podlog/deckmirror/internal/sync"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().Str("version", version).Msg("Starting Deckmirror")

	st, err := store.Open(&cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close cache store")
		}
	}()

	client := sync.NewClient(&cfg.Moxfield)
	syncer := sync.NewSyncer(client, st)

	handler := api.NewHandler(syncer, version)
	router := api.NewRouter(&cfg.Server, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.New(logging.NewSlogLogger(), supervisor.Config{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.Add(services.NewStoreGCService(st, cfg.Cache.GCInterval, cfg.Cache.GCDiscardRatio))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Let in-flight cache writes land before the store closes.
	syncer.Flush()

	logging.Info().Msg("Server stopped gracefully")
	return nil
}
