// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
client.go - Core Moxfield API Client

This file provides the Client struct and HTTP communication layer for the
public Moxfield REST API (api2.moxfield.com).

Client Features:
  - HTTP client with configurable timeout
  - Browser-equivalent request headers (Moxfield rejects bare clients)
  - Circuit breaker protection
  - Retry with exponential backoff for transient failures
  - Rate limiting of outbound requests
  - JSON response parsing with generic type support
  - Context support for cancellation and timeouts

Retry Classification:
  - 2xx: success, no retry
  - 404: NotFoundError, never retried
  - 429 and 5xx: retryable, exponential backoff between attempts
  - other 4xx: UpstreamError, never retried
  - transport failure (DNS, connect, timeout): retryable

Backoff delay for attempt k is backoffBase * 2^(k-1). Waits are cancellable
through the request context.

Related Files:
  - details.go: bounded-concurrency deck detail fan-out
  - orchestrator.go: sync flows combining client and cache repository
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/edh-podlog/deckmirror/internal/config"
	"github.com/edh-podlog/deckmirror/internal/logging"
	"github.com/edh-podlog/deckmirror/internal/metrics"
	"github.com/edh-podlog/deckmirror/internal/models/moxfield"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics. Prevents unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// Moxfield serves HTTP 403 to clients that do not look like a browser, so
// every request carries these headers.
const (
	userAgentHeader = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	refererHeader   = "https://www.moxfield.com/"
)

// readBodyForError reads the response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	if len(body) == maxErrorBodySize {
		return string(body) + "\n... (truncated)"
	}
	return string(body)
}

// ClientInterface defines the Moxfield API operations used by the sync
// orchestrator. Implemented by Client for production use and by mock
// implementations for testing.
//
// All methods follow a consistent pattern:
//   - Accept context.Context as first parameter for cancellation/timeout support
//   - Return typed response structs from internal/models/moxfield
//   - Return *NotFoundError when the resource does not exist upstream
//   - Return *UpstreamError or *TransportError on other failures
//
// Thread Safety: All methods are safe for concurrent use.
type ClientInterface interface {
	GetUserSummary(ctx context.Context, username string) (*moxfield.UserSearchEntry, error)
	ListUserDecks(ctx context.Context, username string) ([]moxfield.Deck, error)
	GetDeckDetail(ctx context.Context, publicID string) (*moxfield.DeckDetail, error)
	FetchDeckDetails(ctx context.Context, publicIDs []string) ([]moxfield.DeckDetail, error)
}

// Client handles communication with the public Moxfield HTTP API.
//
// This client implements ClientInterface and layers three resilience
// mechanisms around every request:
//   - a token-bucket rate limiter bounding outbound request rate
//   - a circuit breaker that opens after consecutive hard failures
//   - a bounded retry loop with exponential backoff for transient errors
//
// Not-found responses count as breaker successes: a missing user says nothing
// about upstream health.
//
// Thread Safety: Safe for concurrent use. Each request creates its own HTTP
// request.
type Client struct {
	baseURL           string
	client            *http.Client
	maxAttempts       int
	backoffBase       time.Duration
	pageSize          int
	detailConcurrency int
	limiter           *rate.Limiter
	breaker           *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a Moxfield API client from the provided configuration.
func NewClient(cfg *config.MoxfieldConfig) *Client {
	c := &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		client:            &http.Client{Timeout: cfg.Timeout},
		maxAttempts:       cfg.MaxAttempts,
		backoffBase:       cfg.RetryBackoffBase,
		pageSize:          cfg.PageSize,
		detailConcurrency: cfg.DetailConcurrency,
	}

	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "moxfield",
			MaxRequests: 1,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				// A missing resource is a valid upstream answer, not an
				// upstream outage.
				var notFound *NotFoundError
				return errors.As(err, &notFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.BreakerState.Set(breakerStateValue(to))
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		})
	}

	return c
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// get performs a GET request against the Moxfield API and returns the raw
// response body. endpoint labels metrics, resource names the target for 404
// reporting. Requests pass through the rate limiter and circuit breaker
// before the retry loop runs.
func (c *Client) get(ctx context.Context, endpoint, resource, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: reqURL, Err: err}
		}
	}

	if c.breaker == nil {
		return c.doWithRetry(ctx, endpoint, resource, reqURL)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doWithRetry(ctx, endpoint, resource, reqURL)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &TransportError{URL: reqURL, Err: err}
	}
	return body, err
}

// doWithRetry runs the bounded attempt loop for a single request. Transient
// failures (transport errors, HTTP 429, HTTP 5xx) are retried up to
// maxAttempts with exponential backoff; everything else returns immediately.
func (c *Client) doWithRetry(ctx context.Context, endpoint, resource, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, &TransportError{URL: reqURL, Err: ctx.Err()}
		}

		body, retryable, err := c.doOnce(ctx, endpoint, reqURL, attempt)
		if err == nil {
			return body, nil
		}

		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, &NotFoundError{Resource: resource}
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
		if attempt == c.maxAttempts {
			break
		}

		metrics.UpstreamRetriesTotal.Inc()
		delay := c.backoffBase * time.Duration(1<<uint(attempt-1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &TransportError{URL: reqURL, Err: ctx.Err()}
		}
	}

	return nil, lastErr
}

// doOnce performs a single HTTP attempt and classifies the outcome. The
// second return value reports whether the error is worth retrying.
func (c *Client) doOnce(ctx context.Context, endpoint, reqURL string, attempt int) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, false, &TransportError{URL: reqURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgentHeader)
	req.Header.Set("Referer", refererHeader)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	log := logging.Ctx(ctx).With().
		Str("method", http.MethodGet).
		Str("url", reqURL).
		Int("attempt", attempt).
		Int64("duration_ms", duration.Milliseconds()).
		Logger()

	if err != nil {
		metrics.RecordUpstreamAttempt(endpoint, "transport", duration)
		log.Warn().Err(err).Msg("Upstream request failed")
		return nil, true, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			metrics.RecordUpstreamAttempt(endpoint, "transport", duration)
			return nil, true, &TransportError{URL: reqURL, Err: readErr}
		}
		metrics.RecordUpstreamAttempt(endpoint, "success", duration)
		log.Debug().Int("status", resp.StatusCode).Msg("Upstream request succeeded")
		return body, false, nil

	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordUpstreamAttempt(endpoint, "not_found", duration)
		log.Debug().Int("status", resp.StatusCode).Msg("Upstream resource not found")
		return nil, false, &NotFoundError{Resource: reqURL}

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		metrics.RecordUpstreamAttempt(endpoint, "retryable", duration)
		log.Warn().Int("status", resp.StatusCode).Msg("Upstream request failed, will retry")
		return nil, true, &UpstreamError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       readBodyForError(resp.Body),
		}

	default:
		metrics.RecordUpstreamAttempt(endpoint, "fatal", duration)
		log.Error().Int("status", resp.StatusCode).Msg("Upstream request failed")
		return nil, false, &UpstreamError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       readBodyForError(resp.Body),
		}
	}
}

// callAPI performs a GET request and decodes the JSON response into T.
func callAPI[T any](ctx context.Context, c *Client, endpoint, resource, path string, params url.Values) (*T, error) {
	body, err := c.get(ctx, endpoint, resource, path, params)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return &out, nil
}

// GetUserSummary resolves a Moxfield username through the SFW user search
// endpoint. The search is fuzzy, so the result list is scanned for a
// case-insensitive identity match on the username. No identity match means
// the user does not exist, regardless of how many near matches the search
// returned.
func (c *Client) GetUserSummary(ctx context.Context, username string) (*moxfield.UserSearchEntry, error) {
	resource := fmt.Sprintf("user %q", username)

	params := url.Values{}
	params.Set("q", username)

	page, err := callAPI[moxfield.UserSearchPage](ctx, c, "user_search", resource, "/v2/users/search-sfw", params)
	if err != nil {
		return nil, err
	}

	for i := range page.Data {
		if strings.EqualFold(page.Data[i].UserName, username) {
			return &page.Data[i], nil
		}
	}
	return nil, &NotFoundError{Resource: resource}
}

// ListUserDecks fetches every public deck of a user by walking the paginated
// deck listing. Pages are requested sequentially until totalPages is reached.
// An empty data page ends the walk early so a lying totalPages cannot loop
// the client forever.
func (c *Client) ListUserDecks(ctx context.Context, username string) ([]moxfield.Deck, error) {
	resource := fmt.Sprintf("decks of user %q", username)
	path := fmt.Sprintf("/v2/users/%s/decks", url.PathEscape(username))

	var decks []moxfield.Deck
	for pageNumber := 1; ; pageNumber++ {
		params := url.Values{}
		params.Set("pageNumber", strconv.Itoa(pageNumber))
		params.Set("pageSize", strconv.Itoa(c.pageSize))
		params.Set("sortType", "Updated")
		params.Set("sortDirection", "Descending")
		params.Set("includePinned", "true")
		params.Set("showIllegal", "true")

		page, err := callAPI[moxfield.DeckSearchPage](ctx, c, "deck_list", resource, path, params)
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}
		decks = append(decks, page.Data...)
		if pageNumber >= page.TotalPages {
			break
		}
	}
	return decks, nil
}

// GetDeckDetail fetches the full deck document including boards and tokens.
func (c *Client) GetDeckDetail(ctx context.Context, publicID string) (*moxfield.DeckDetail, error) {
	resource := fmt.Sprintf("deck %q", publicID)
	path := fmt.Sprintf("/v3/decks/all/%s", url.PathEscape(publicID))

	return callAPI[moxfield.DeckDetail](ctx, c, "deck_detail", resource, path, nil)
}
