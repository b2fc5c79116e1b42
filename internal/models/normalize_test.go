// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package models

import (
	"testing"
	"time"

	"github.com/edh-podlog/deckmirror/internal/models/moxfield"
)

func TestNormalizeUser(t *testing.T) {
	entry := moxfield.UserSearchEntry{
		UserName:        "Alice",
		DisplayName:     "Alice B.",
		ProfileImageURL: "https://assets.moxfield.net/alice.png",
	}

	user := NormalizeUser(entry)
	if user.ProfileURL != "https://www.moxfield.com/users/Alice" {
		t.Errorf("ProfileURL = %q", user.ProfileURL)
	}
	if user.Badges == nil {
		t.Error("Badges = nil, want empty slice")
	}
}

func TestNormalizeDeckSummary(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deck := moxfield.Deck{
		ID:           "abc",
		PublicID:     "deck-1",
		Name:         "Goblins",
		Format:       "commander",
		CreatedAtUTC: &created,
		LikeCount:    7,
		ViewCount:    100,
		AuthorTags: map[string][]string{
			"Skirk Prospector": {"ramp"},
			"Goblin Lackey":    {"cheat", "aggro"},
		},
		Hubs: []moxfield.Hub{{Name: "Aggro"}, {Name: "Tribal"}},
	}

	s := NormalizeDeckSummary(deck)
	if s.PublicID != "deck-1" || s.Stats.LikeCount != 7 || s.Stats.ViewCount != 100 {
		t.Errorf("summary = %+v", s)
	}
	if s.CreatedAt == nil || !s.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", s.CreatedAt, created)
	}

	// Tag entries come out sorted by card name.
	if len(s.Tags) != 2 {
		t.Fatalf("len(Tags) = %d, want 2", len(s.Tags))
	}
	if s.Tags[0].CardName != "Goblin Lackey" || s.Tags[1].CardName != "Skirk Prospector" {
		t.Errorf("tag order = [%s %s]", s.Tags[0].CardName, s.Tags[1].CardName)
	}

	if len(s.Hubs) != 2 || s.Hubs[0] != "Aggro" || s.Hubs[1] != "Tribal" {
		t.Errorf("Hubs = %v", s.Hubs)
	}

	// Absent collections normalize to empty, not null.
	if s.Authors == nil || s.Colors == nil || s.ColorIdentity == nil {
		t.Error("expected empty slices for absent collections")
	}
}

func TestNormalizeBoardsOrdering(t *testing.T) {
	detail := moxfield.DeckDetail{
		Boards: map[string]moxfield.Board{
			"sideboard":  {Count: 1, Cards: map[string]moxfield.CardEntry{}},
			"wishboard":  {Count: 0, Cards: map[string]moxfield.CardEntry{}},
			"commanders": {Count: 1, Cards: map[string]moxfield.CardEntry{}},
			"mainboard":  {Count: 99, Cards: map[string]moxfield.CardEntry{}},
			"attic":      {Count: 0, Cards: map[string]moxfield.CardEntry{}},
		},
	}

	d := NormalizeDeckDetail(detail)
	got := make([]string, len(d.Boards))
	for i, b := range d.Boards {
		got[i] = b.Name
	}

	// Well-known boards first in fixed order, the rest alphabetical.
	want := []string{"commanders", "mainboard", "sideboard", "attic", "wishboard"}
	if len(got) != len(want) {
		t.Fatalf("boards = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("boards[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizeBoardCards(t *testing.T) {
	detail := moxfield.DeckDetail{
		Boards: map[string]moxfield.Board{
			"mainboard": {
				Count: 5,
				Cards: map[string]moxfield.CardEntry{
					"b-card": {Quantity: 4, Card: map[string]any{"name": "Shock"}},
					"a-card": {Quantity: 1, IsFoil: true, Card: map[string]any{"name": "Bolt"}},
				},
			},
		},
	}

	d := NormalizeDeckDetail(detail)
	if len(d.Boards) != 1 {
		t.Fatalf("len(Boards) = %d, want 1", len(d.Boards))
	}
	board := d.Boards[0]
	if board.Count != 5 || len(board.Cards) != 2 {
		t.Fatalf("board = %+v", board)
	}
	// Cards sort by entry key for stable output.
	if board.Cards[0].Card["name"] != "Bolt" || board.Cards[1].Card["name"] != "Shock" {
		t.Errorf("card order = [%v %v]", board.Cards[0].Card["name"], board.Cards[1].Card["name"])
	}
	if !board.Cards[0].IsFoil || board.Cards[0].Quantity != 1 {
		t.Errorf("card[0] = %+v", board.Cards[0])
	}
}

func TestNormalizeDeckDetailEmptyCollections(t *testing.T) {
	d := NormalizeDeckDetail(moxfield.DeckDetail{})
	if d.Boards == nil {
		t.Error("Boards = nil, want empty slice")
	}
	if d.Tokens == nil {
		t.Error("Tokens = nil, want empty slice")
	}
}
