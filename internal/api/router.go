// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
router.go - Chi Router Assembly

This file wires the API handlers into a chi router with the shared
middleware stack: request-ID propagation, real-IP extraction, panic
recovery, CORS, per-IP rate limiting, and Prometheus instrumentation.

The /metrics endpoint is served outside the /api/v1 rate limit so scrapers
are never throttled by API traffic.
*/

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edh-podlog/deckmirror/internal/config"
	"github.com/edh-podlog/deckmirror/internal/middleware"
)

// NewRouter assembles the Deckmirror HTTP router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Use(middleware.Prometheus)

		r.Get("/health", handler.Health)

		r.Route("/users/{username}", func(r chi.Router) {
			r.Get("/decks", handler.UserDecks)
			r.Get("/deck-summaries", handler.UserDeckSummaries)
			r.Delete("/decks/{deckID}", handler.DeleteUserDeck)
		})

		r.Route("/cache/users/{username}", func(r chi.Router) {
			r.Get("/decks", handler.CachedUserDecks)
			r.Get("/deck-summaries", handler.CachedUserDeckSummaries)
		})
	})

	return r
}
