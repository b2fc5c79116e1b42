// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

// Package middleware provides HTTP middleware shared by the API routes.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/edh-podlog/deckmirror/internal/logging"
)

// RequestID assigns a unique ID to each request, echoes it in the
// X-Request-ID response header, and stores it in the request context for
// log correlation. An ID supplied by an upstream proxy is kept as-is.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
