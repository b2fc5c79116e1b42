// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
details.go - Bounded-Concurrency Deck Detail Fan-Out

This file implements the concurrent fetch of full deck documents for a list
of deck public IDs. Concurrency is bounded by the configured detail
concurrency limit and results come back in input order: result i always
corresponds to publicIDs[i].

Failure Semantics: the fan-out is all-or-nothing. The first failing fetch
cancels the remaining work and FetchDeckDetails returns that error. A partial
deck list never reaches the cache.
*/

package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/edh-podlog/deckmirror/internal/models/moxfield"
)

// detailFetcher is the single-deck fetch dependency of the fan-out, satisfied
// by *Client and by test fakes.
type detailFetcher interface {
	GetDeckDetail(ctx context.Context, publicID string) (*moxfield.DeckDetail, error)
}

// FetchDeckDetails fetches the full deck document for every public ID,
// running at most detailConcurrency upstream requests at once. The returned
// slice preserves input order. If any fetch fails the whole operation fails
// and in-flight work is cancelled.
func (c *Client) FetchDeckDetails(ctx context.Context, publicIDs []string) ([]moxfield.DeckDetail, error) {
	return fetchDetails(ctx, c, publicIDs, c.detailConcurrency)
}

// fetchDetails runs the bounded fan-out. fetch is invoked once per ID from
// worker goroutines.
func fetchDetails(ctx context.Context, fetcher detailFetcher, publicIDs []string, concurrency int) ([]moxfield.DeckDetail, error) {
	if len(publicIDs) == 0 {
		return []moxfield.DeckDetail{}, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	fctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]moxfield.DeckDetail, len(publicIDs))
	errs := make([]error, len(publicIDs))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, id := range publicIDs {
		select {
		case sem <- struct{}{}:
		case <-fctx.Done():
			errs[i] = fctx.Err()
			continue
		}

		wg.Add(1)
		go func(slot int, publicID string) {
			defer wg.Done()
			defer func() { <-sem }()

			detail, err := fetcher.GetDeckDetail(fctx, publicID)
			if err != nil {
				errs[slot] = err
				// First failure wins, remaining fetches abort.
				cancel()
				return
			}
			results[slot] = *detail
		}(i, id)
	}
	wg.Wait()

	if err := selectFanOutError(errs); err != nil {
		return nil, err
	}
	return results, nil
}

// selectFanOutError picks the error to surface from a completed fan-out.
// Cancellation errors are side effects of the real failure, so a concrete
// upstream error is preferred when both are present.
func selectFanOutError(errs []error) error {
	var fallback error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) {
			return err
		}
		if fallback == nil {
			fallback = err
		}
	}
	return fallback
}
