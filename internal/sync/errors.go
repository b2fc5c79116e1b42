// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
errors.go - Upstream Error Taxonomy

This file defines the typed errors the Moxfield client returns. The API layer
maps them to HTTP status codes and the retry loop uses them to decide whether
another attempt is worthwhile.

Error Classes:
  - NotFoundError: the requested user or deck does not exist upstream.
    Never retried, surfaces as HTTP 404.
  - UpstreamError: Moxfield answered with a non-retryable error status
    (4xx other than 404/429). Surfaces as HTTP 502.
  - TransportError: the request never produced a usable response (DNS,
    connection, timeout). Retryable; surfaces as HTTP 502 when attempts
    are exhausted.
*/

package sync

import "fmt"

// NotFoundError indicates the requested resource does not exist upstream.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// UpstreamError indicates Moxfield answered with an unexpected status code.
// Body holds at most the first 64KB of the response for diagnostics.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request %s failed with status %d", e.URL, e.StatusCode)
}

// TransportError indicates the request failed before a response was received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
