// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package sync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/edh-podlog/deckmirror/internal/models"
	"github.com/edh-podlog/deckmirror/internal/models/moxfield"
)

// fakeClient implements ClientInterface from canned data.
type fakeClient struct {
	user    *moxfield.UserSearchEntry
	decks   []moxfield.Deck
	details map[string]moxfield.DeckDetail

	userErr    error
	listErr    error
	detailsErr error

	calls struct {
		sync.Mutex
		user, list, details int
	}
}

func (f *fakeClient) GetUserSummary(ctx context.Context, username string) (*moxfield.UserSearchEntry, error) {
	f.calls.Lock()
	f.calls.user++
	f.calls.Unlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeClient) ListUserDecks(ctx context.Context, username string) ([]moxfield.Deck, error) {
	f.calls.Lock()
	f.calls.list++
	f.calls.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.decks, nil
}

func (f *fakeClient) GetDeckDetail(ctx context.Context, publicID string) (*moxfield.DeckDetail, error) {
	d, ok := f.details[publicID]
	if !ok {
		return nil, &NotFoundError{Resource: publicID}
	}
	return &d, nil
}

func (f *fakeClient) FetchDeckDetails(ctx context.Context, publicIDs []string) ([]moxfield.DeckDetail, error) {
	f.calls.Lock()
	f.calls.details++
	f.calls.Unlock()
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	out := make([]moxfield.DeckDetail, 0, len(publicIDs))
	for _, id := range publicIDs {
		d, ok := f.details[id]
		if !ok {
			return nil, &NotFoundError{Resource: id}
		}
		out = append(out, d)
	}
	return out, nil
}

// fakeRepo implements Repository in memory.
type fakeRepo struct {
	mu        sync.Mutex
	full      map[string]*models.UserDecksResponse
	summaries map[string]*models.UserDeckSummariesResponse

	saveFullErr      error
	saveSummariesErr error
	deleted          bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		full:      make(map[string]*models.UserDecksResponse),
		summaries: make(map[string]*models.UserDeckSummariesResponse),
	}
}

func (r *fakeRepo) SaveFull(ctx context.Context, user models.UserSummary, decks []models.DeckDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveFullErr != nil {
		return r.saveFullErr
	}
	r.full[user.UserName] = &models.UserDecksResponse{User: user, TotalDecks: len(decks), Decks: decks}
	return nil
}

func (r *fakeRepo) SaveSummaries(ctx context.Context, user models.UserSummary, decks []models.DeckSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveSummariesErr != nil {
		return r.saveSummariesErr
	}
	r.summaries[user.UserName] = &models.UserDeckSummariesResponse{User: user, TotalDecks: len(decks), Decks: decks}
	return nil
}

func (r *fakeRepo) FetchFull(ctx context.Context, username string) (*models.UserDecksResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.full[username], nil
}

func (r *fakeRepo) FetchSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaries[username], nil
}

func (r *fakeRepo) DeleteDeck(ctx context.Context, username, deckID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted, nil
}

func testClient() *fakeClient {
	d1 := moxfield.DeckDetail{}
	d1.PublicID = "d1"
	d1.Name = "Goblins"
	d2 := moxfield.DeckDetail{}
	d2.PublicID = "d2"
	d2.Name = "Elves"

	return &fakeClient{
		user: &moxfield.UserSearchEntry{UserName: "bob", DisplayName: "Bob"},
		decks: []moxfield.Deck{
			{PublicID: "d1", Name: "Goblins"},
			{PublicID: "d2", Name: "Elves"},
		},
		details: map[string]moxfield.DeckDetail{"d1": d1, "d2": d2},
	}
}

func TestSyncFull(t *testing.T) {
	client := testClient()
	repo := newFakeRepo()
	syncer := NewSyncer(client, repo)

	resp, err := syncer.SyncFull(context.Background(), "bob")
	if err != nil {
		t.Fatalf("SyncFull() error = %v", err)
	}

	if resp.User.UserName != "bob" {
		t.Errorf("User.UserName = %q, want %q", resp.User.UserName, "bob")
	}
	if resp.User.ProfileURL != "https://www.moxfield.com/users/bob" {
		t.Errorf("User.ProfileURL = %q", resp.User.ProfileURL)
	}
	if resp.TotalDecks != 2 || len(resp.Decks) != 2 {
		t.Fatalf("TotalDecks = %d, len(Decks) = %d, want 2 and 2", resp.TotalDecks, len(resp.Decks))
	}
	// Listing order carries through to the response.
	if resp.Decks[0].PublicID != "d1" || resp.Decks[1].PublicID != "d2" {
		t.Errorf("deck order = [%s %s], want [d1 d2]", resp.Decks[0].PublicID, resp.Decks[1].PublicID)
	}

	// The snapshot lands in the repository once the background write drains.
	syncer.Flush()
	cached, _ := repo.FetchFull(context.Background(), "bob")
	if cached == nil || cached.TotalDecks != 2 {
		t.Fatalf("expected persisted full snapshot, got %+v", cached)
	}
}

func TestSyncSummariesDoesNotFetchDetails(t *testing.T) {
	client := testClient()
	repo := newFakeRepo()
	syncer := NewSyncer(client, repo)

	resp, err := syncer.SyncSummaries(context.Background(), "bob")
	if err != nil {
		t.Fatalf("SyncSummaries() error = %v", err)
	}
	if len(resp.Decks) != 2 {
		t.Fatalf("len(Decks) = %d, want 2", len(resp.Decks))
	}

	client.calls.Lock()
	defer client.calls.Unlock()
	if client.calls.details != 0 {
		t.Errorf("detail fan-out calls = %d, want 0", client.calls.details)
	}
}

func TestSyncFullPersistenceFailureIsNotSurfaced(t *testing.T) {
	client := testClient()
	repo := newFakeRepo()
	repo.saveFullErr = errors.New("disk full")
	syncer := NewSyncer(client, repo)

	resp, err := syncer.SyncFull(context.Background(), "bob")
	if err != nil {
		t.Fatalf("SyncFull() error = %v, persistence failures must stay internal", err)
	}
	if resp.TotalDecks != 2 {
		t.Errorf("TotalDecks = %d, want 2", resp.TotalDecks)
	}
	syncer.Flush()
}

func TestSyncFullPropagatesUserNotFound(t *testing.T) {
	client := testClient()
	client.userErr = &NotFoundError{Resource: `user "bob"`}
	syncer := NewSyncer(client, newFakeRepo())

	_, err := syncer.SyncFull(context.Background(), "bob")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSyncFullPropagatesListingFailure(t *testing.T) {
	client := testClient()
	client.listErr = &UpstreamError{URL: "http://example.test", StatusCode: 500}
	syncer := NewSyncer(client, newFakeRepo())

	_, err := syncer.SyncFull(context.Background(), "bob")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestCachedReadsServeWithoutUpstream(t *testing.T) {
	client := testClient()
	repo := newFakeRepo()
	syncer := NewSyncer(client, repo)

	if _, err := syncer.SyncFull(context.Background(), "bob"); err != nil {
		t.Fatalf("SyncFull() error = %v", err)
	}
	syncer.Flush()

	client.calls.Lock()
	before := client.calls.user + client.calls.list + client.calls.details
	client.calls.Unlock()

	resp, err := syncer.CachedFull(context.Background(), "bob")
	if err != nil {
		t.Fatalf("CachedFull() error = %v", err)
	}
	if resp.TotalDecks != 2 {
		t.Errorf("TotalDecks = %d, want 2", resp.TotalDecks)
	}

	client.calls.Lock()
	after := client.calls.user + client.calls.list + client.calls.details
	client.calls.Unlock()
	if after != before {
		t.Errorf("cached read made %d upstream calls", after-before)
	}
}

func TestCachedReadMissIsNotFound(t *testing.T) {
	syncer := NewSyncer(testClient(), newFakeRepo())

	_, err := syncer.CachedFull(context.Background(), "nobody")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	_, err = syncer.CachedSummaries(context.Background(), "nobody")
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteDeck(t *testing.T) {
	repo := newFakeRepo()
	syncer := NewSyncer(testClient(), repo)

	repo.deleted = true
	if err := syncer.DeleteDeck(context.Background(), "bob", "d1"); err != nil {
		t.Fatalf("DeleteDeck() error = %v", err)
	}

	repo.deleted = false
	err := syncer.DeleteDeck(context.Background(), "bob", "missing")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
