// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/edh-podlog/deckmirror/internal/config"
	"github.com/edh-podlog/deckmirror/internal/models"
	"github.com/edh-podlog/deckmirror/internal/sync"
)

// fakeSyncService returns canned responses and errors per method.
type fakeSyncService struct {
	fullResp    *models.UserDecksResponse
	summResp    *models.UserDeckSummariesResponse
	fullErr     error
	summErr     error
	cacheErr    error
	deleteErr   error
	lastCached  string
	lastDeleted string
}

func (f *fakeSyncService) SyncFull(ctx context.Context, username string) (*models.UserDecksResponse, error) {
	if f.fullErr != nil {
		return nil, f.fullErr
	}
	return f.fullResp, nil
}

func (f *fakeSyncService) SyncSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error) {
	if f.summErr != nil {
		return nil, f.summErr
	}
	return f.summResp, nil
}

func (f *fakeSyncService) CachedFull(ctx context.Context, username string) (*models.UserDecksResponse, error) {
	f.lastCached = username
	if f.cacheErr != nil {
		return nil, f.cacheErr
	}
	return f.fullResp, nil
}

func (f *fakeSyncService) CachedSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error) {
	f.lastCached = username
	if f.cacheErr != nil {
		return nil, f.cacheErr
	}
	return f.summResp, nil
}

func (f *fakeSyncService) DeleteDeck(ctx context.Context, username, deckID string) error {
	f.lastDeleted = deckID
	return f.deleteErr
}

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
		RateLimit:       0,
	}
}

func okSyncService() *fakeSyncService {
	return &fakeSyncService{
		fullResp: &models.UserDecksResponse{
			User:       models.UserSummary{UserName: "bob"},
			TotalDecks: 1,
			Decks:      []models.DeckDetail{{DeckSummary: models.DeckSummary{PublicID: "d1", Name: "Goblins"}}},
		},
		summResp: &models.UserDeckSummariesResponse{
			User:       models.UserSummary{UserName: "bob"},
			TotalDecks: 1,
			Decks:      []models.DeckSummary{{PublicID: "d1", Name: "Goblins"}},
		},
	}
}

func doRequest(t *testing.T, svc SyncService, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(testServerConfig(), NewHandler(svc, "test"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return resp
}

func TestUserDecksSuccess(t *testing.T) {
	rec := doRequest(t, okSyncService(), http.MethodGet, "/api/v1/users/bob/decks")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeBody(t, rec)
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.Error != nil {
		t.Errorf("Error = %+v, want nil", resp.Error)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown user maps to 404",
			err:        &sync.NotFoundError{Resource: `user "bob"`},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "upstream error maps to 502",
			err:        &sync.UpstreamError{URL: "https://api2.moxfield.com", StatusCode: 500},
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeExternalServiceFail,
		},
		{
			name:       "transport error maps to 502",
			err:        &sync.TransportError{URL: "https://api2.moxfield.com", Err: context.DeadlineExceeded},
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeExternalServiceFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := okSyncService()
			svc.fullErr = tt.err
			rec := doRequest(t, svc, http.MethodGet, "/api/v1/users/bob/decks")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeBody(t, rec)
			if resp.Success {
				t.Error("Success = true, want false")
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("Error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestDeckSummariesSuccess(t *testing.T) {
	rec := doRequest(t, okSyncService(), http.MethodGet, "/api/v1/users/bob/deck-summaries")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCachedRoutes(t *testing.T) {
	svc := okSyncService()
	rec := doRequest(t, svc, http.MethodGet, "/api/v1/cache/users/bob/decks")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.lastCached != "bob" {
		t.Errorf("cached username = %q, want %q", svc.lastCached, "bob")
	}

	svc.cacheErr = &sync.NotFoundError{Resource: `cached user "bob"`}
	rec = doRequest(t, svc, http.MethodGet, "/api/v1/cache/users/bob/deck-summaries")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for cache miss", rec.Code)
	}
}

func TestDeleteDeck(t *testing.T) {
	svc := okSyncService()
	rec := doRequest(t, svc, http.MethodDelete, "/api/v1/users/bob/decks/d1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if svc.lastDeleted != "d1" {
		t.Errorf("deleted deck = %q, want %q", svc.lastDeleted, "d1")
	}

	svc.deleteErr = &sync.NotFoundError{Resource: `cached deck "d9"`}
	rec = doRequest(t, svc, http.MethodDelete, "/api/v1/users/bob/decks/d9")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, okSyncService(), http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeBody(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data is %T, want object", resp.Data)
	}
	if data["service"] != "deckmirror" {
		t.Errorf("service = %v, want deckmirror", data["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, okSyncService(), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	rec := doRequest(t, okSyncService(), http.MethodGet, "/api/v1/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}

	// A caller-supplied ID is preserved.
	router := NewRouter(testServerConfig(), NewHandler(okSyncService(), "test"))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "test-id-42")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "test-id-42" {
		t.Errorf("X-Request-ID = %q, want %q", got, "test-id-42")
	}
}
