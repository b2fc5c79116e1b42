// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
orchestrator.go - Sync Flows and Cached Reads

This file combines the Moxfield client and the cache repository into the
operations the API layer calls:

  - SyncFull / SyncSummaries: resolve the user, list their decks, optionally
    fan out for full details, respond with the normalized payload, and
    persist the result to the cache in the background.
  - CachedFull / CachedSummaries: serve the last persisted snapshot without
    touching upstream.
  - DeleteDeck: remove one deck from both cached variants.

Persistence is best effort: the live response has already been assembled from
upstream data, so a failing cache write is logged and counted but never
surfaced to the caller. Persist goroutines detach from the request context so
a client disconnect cannot abort a write midway.
*/

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edh-podlog/deckmirror/internal/logging"
	"github.com/edh-podlog/deckmirror/internal/metrics"
	"github.com/edh-podlog/deckmirror/internal/models"
	"github.com/edh-podlog/deckmirror/internal/models/moxfield"
)

// defaultPersistTimeout bounds how long a detached persistence write may run.
const defaultPersistTimeout = 30 * time.Second

// Repository is the cache store dependency of the orchestrator. Fetch methods
// return (nil, nil) when the user has no cached snapshot for that variant.
//
// Implemented by store.Store for production use and by fakes in tests.
type Repository interface {
	SaveFull(ctx context.Context, user models.UserSummary, decks []models.DeckDetail) error
	SaveSummaries(ctx context.Context, user models.UserSummary, decks []models.DeckSummary) error
	FetchFull(ctx context.Context, username string) (*models.UserDecksResponse, error)
	FetchSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error)
	DeleteDeck(ctx context.Context, username, deckID string) (bool, error)
}

// Syncer orchestrates upstream syncs and cached reads.
//
// Thread Safety: safe for concurrent use.
type Syncer struct {
	client         ClientInterface
	repo           Repository
	persistTimeout time.Duration
	persistWG      sync.WaitGroup
}

// NewSyncer creates a Syncer over the given client and repository.
func NewSyncer(client ClientInterface, repo Repository) *Syncer {
	return &Syncer{
		client:         client,
		repo:           repo,
		persistTimeout: defaultPersistTimeout,
	}
}

// SyncFull fetches a user's profile and full deck documents from Moxfield,
// returns the normalized response, and persists it to the cache in the
// background.
func (s *Syncer) SyncFull(ctx context.Context, username string) (*models.UserDecksResponse, error) {
	start := time.Now()

	user, decks, err := s.resolveUserDecks(ctx, username)
	if err != nil {
		metrics.RecordSync("full", time.Since(start), 0, errorType(err))
		return nil, err
	}

	publicIDs := make([]string, 0, len(decks))
	for _, d := range decks {
		publicIDs = append(publicIDs, d.PublicID)
	}
	wireDetails, err := s.client.FetchDeckDetails(ctx, publicIDs)
	if err != nil {
		metrics.RecordSync("full", time.Since(start), 0, errorType(err))
		return nil, err
	}

	details := make([]models.DeckDetail, 0, len(wireDetails))
	for _, d := range wireDetails {
		details = append(details, models.NormalizeDeckDetail(d))
	}

	resp := &models.UserDecksResponse{
		User:       *user,
		TotalDecks: len(details),
		Decks:      details,
	}

	s.persistAsync(ctx, username, "full", func(pctx context.Context) error {
		return s.repo.SaveFull(pctx, resp.User, resp.Decks)
	})

	metrics.RecordSync("full", time.Since(start), len(details), "")
	return resp, nil
}

// SyncSummaries fetches a user's profile and deck summaries from Moxfield,
// returns the normalized response, and persists it to the cache in the
// background. No per-deck detail requests are made.
func (s *Syncer) SyncSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error) {
	start := time.Now()

	user, decks, err := s.resolveUserDecks(ctx, username)
	if err != nil {
		metrics.RecordSync("summaries", time.Since(start), 0, errorType(err))
		return nil, err
	}

	summaries := make([]models.DeckSummary, 0, len(decks))
	for _, d := range decks {
		summaries = append(summaries, models.NormalizeDeckSummary(d))
	}

	resp := &models.UserDeckSummariesResponse{
		User:       *user,
		TotalDecks: len(summaries),
		Decks:      summaries,
	}

	s.persistAsync(ctx, username, "summaries", func(pctx context.Context) error {
		return s.repo.SaveSummaries(pctx, resp.User, resp.Decks)
	})

	metrics.RecordSync("summaries", time.Since(start), len(summaries), "")
	return resp, nil
}

// resolveUserDecks runs the shared head of both sync flows: resolve the
// user's identity and list their decks.
func (s *Syncer) resolveUserDecks(ctx context.Context, username string) (*models.UserSummary, []moxfield.Deck, error) {
	entry, err := s.client.GetUserSummary(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	decks, err := s.client.ListUserDecks(ctx, entry.UserName)
	if err != nil {
		return nil, nil, err
	}
	user := models.NormalizeUser(*entry)
	return &user, decks, nil
}

// persistAsync writes a sync result to the cache on a detached goroutine.
// The write uses its own deadline, independent of the request context, and
// failures are logged and counted but never returned.
func (s *Syncer) persistAsync(ctx context.Context, username, variant string, save func(context.Context) error) {
	log := logging.Ctx(ctx)

	s.persistWG.Add(1)
	go func() {
		defer s.persistWG.Done()

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
		defer cancel()

		if err := save(pctx); err != nil {
			metrics.SyncErrors.WithLabelValues("persistence").Inc()
			log.Error().Err(err).
				Str("username", username).
				Str("variant", variant).
				Msg("Failed to persist sync result")
			return
		}
		log.Debug().
			Str("username", username).
			Str("variant", variant).
			Msg("Persisted sync result")
	}()
}

// Flush blocks until all pending background persistence writes finish.
// Used during shutdown and by tests.
func (s *Syncer) Flush() {
	s.persistWG.Wait()
}

// CachedFull serves the last persisted full snapshot for a user. Returns
// *NotFoundError when the user has never been synced with details.
func (s *Syncer) CachedFull(ctx context.Context, username string) (*models.UserDecksResponse, error) {
	resp, err := s.repo.FetchFull(ctx, username)
	if err != nil {
		return nil, err
	}
	metrics.RecordCacheRead("full", resp != nil)
	if resp == nil {
		return nil, &NotFoundError{Resource: fmt.Sprintf("cached user %q", username)}
	}
	return resp, nil
}

// CachedSummaries serves the last persisted summary snapshot for a user.
// Returns *NotFoundError when the user has never been synced.
func (s *Syncer) CachedSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error) {
	resp, err := s.repo.FetchSummaries(ctx, username)
	if err != nil {
		return nil, err
	}
	metrics.RecordCacheRead("summaries", resp != nil)
	if resp == nil {
		return nil, &NotFoundError{Resource: fmt.Sprintf("cached user %q", username)}
	}
	return resp, nil
}

// DeleteDeck removes one deck from the user's cached snapshots. Returns
// *NotFoundError when the deck is not present in the full snapshot.
func (s *Syncer) DeleteDeck(ctx context.Context, username, deckID string) error {
	removed, err := s.repo.DeleteDeck(ctx, username, deckID)
	if err != nil {
		return err
	}
	if !removed {
		return &NotFoundError{Resource: fmt.Sprintf("cached deck %q of user %q", deckID, username)}
	}
	return nil
}

// errorType maps an upstream error to the label recorded on sync failure
// metrics.
func errorType(err error) string {
	var notFound *NotFoundError
	var upstream *UpstreamError
	var transport *TransportError
	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.As(err, &transport):
		return "transport"
	default:
		return "other"
	}
}
