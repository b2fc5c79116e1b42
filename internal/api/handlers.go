// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
handlers.go - HTTP Request Handlers

This file implements the Deckmirror API handlers:

  Live (sync against Moxfield, then respond):
    GET    /api/v1/users/{username}/decks
    GET    /api/v1/users/{username}/deck-summaries
    DELETE /api/v1/users/{username}/decks/{deckID}

  Cached (serve the last persisted snapshot, never touch upstream):
    GET /api/v1/cache/users/{username}/decks
    GET /api/v1/cache/users/{username}/deck-summaries

  Operational:
    GET /api/v1/health

Error Mapping:
  - sync.NotFoundError  -> 404 NOT_FOUND
  - sync.UpstreamError  -> 502 EXTERNAL_SERVICE_FAILED
  - sync.TransportError -> 502 EXTERNAL_SERVICE_FAILED
  - anything else       -> 500 INTERNAL_ERROR
*/

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edh-podlog/deckmirror/internal/logging"
	"github.com/edh-podlog/deckmirror/internal/models"
	"github.com/edh-podlog/deckmirror/internal/sync"
)

// SyncService is the handler-facing surface of the sync orchestrator.
// Implemented by *sync.Syncer and by fakes in tests.
type SyncService interface {
	SyncFull(ctx context.Context, username string) (*models.UserDecksResponse, error)
	SyncSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error)
	CachedFull(ctx context.Context, username string) (*models.UserDecksResponse, error)
	CachedSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error)
	DeleteDeck(ctx context.Context, username, deckID string) error
}

// Handler holds the dependencies of the API handlers.
type Handler struct {
	syncer  SyncService
	version string
}

// NewHandler creates an API handler over the given sync service.
func NewHandler(syncer SyncService, version string) *Handler {
	return &Handler{syncer: syncer, version: version}
}

// UserDecks handles GET /api/v1/users/{username}/decks.
// Syncs the user's full deck documents from Moxfield and returns them.
func (h *Handler) UserDecks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	username := chi.URLParam(r, "username")
	if username == "" {
		rw.BadRequest("username is required")
		return
	}

	resp, err := h.syncer.SyncFull(r.Context(), username)
	if err != nil {
		h.writeSyncError(rw, r, err)
		return
	}
	rw.Success(resp)
}

// UserDeckSummaries handles GET /api/v1/users/{username}/deck-summaries.
// Syncs the user's deck summaries from Moxfield and returns them.
func (h *Handler) UserDeckSummaries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	username := chi.URLParam(r, "username")
	if username == "" {
		rw.BadRequest("username is required")
		return
	}

	resp, err := h.syncer.SyncSummaries(r.Context(), username)
	if err != nil {
		h.writeSyncError(rw, r, err)
		return
	}
	rw.Success(resp)
}

// DeleteUserDeck handles DELETE /api/v1/users/{username}/decks/{deckID}.
// Removes one deck from the user's cached snapshots.
func (h *Handler) DeleteUserDeck(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	username := chi.URLParam(r, "username")
	deckID := chi.URLParam(r, "deckID")
	if username == "" || deckID == "" {
		rw.BadRequest("username and deck ID are required")
		return
	}

	if err := h.syncer.DeleteDeck(r.Context(), username, deckID); err != nil {
		h.writeSyncError(rw, r, err)
		return
	}
	rw.NoContent()
}

// CachedUserDecks handles GET /api/v1/cache/users/{username}/decks.
// Serves the last persisted full snapshot without contacting Moxfield.
func (h *Handler) CachedUserDecks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	username := chi.URLParam(r, "username")
	if username == "" {
		rw.BadRequest("username is required")
		return
	}

	resp, err := h.syncer.CachedFull(r.Context(), username)
	if err != nil {
		h.writeSyncError(rw, r, err)
		return
	}
	rw.Success(resp)
}

// CachedUserDeckSummaries handles GET /api/v1/cache/users/{username}/deck-summaries.
// Serves the last persisted summary snapshot without contacting Moxfield.
func (h *Handler) CachedUserDeckSummaries(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	username := chi.URLParam(r, "username")
	if username == "" {
		rw.BadRequest("username is required")
		return
	}

	resp, err := h.syncer.CachedSummaries(r.Context(), username)
	if err != nil {
		h.writeSyncError(rw, r, err)
		return
	}
	rw.Success(resp)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{
		"status":  "ok",
		"service": "deckmirror",
		"version": h.version,
	})
}

// writeSyncError maps a sync error to its HTTP representation.
func (h *Handler) writeSyncError(rw *ResponseWriter, r *http.Request, err error) {
	var notFound *sync.NotFoundError
	var upstream *sync.UpstreamError
	var transport *sync.TransportError

	switch {
	case errors.As(err, &notFound):
		rw.NotFound(notFound.Error())
	case errors.As(err, &upstream), errors.As(err, &transport):
		rw.ExternalServiceError("moxfield", err)
	default:
		log := logging.Ctx(r.Context())
		log.Error().Err(err).Msg("Request failed")
		rw.InternalError("An internal error occurred")
	}
}
