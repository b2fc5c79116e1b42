// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

// Package models declares the normalized response types served by the
// Deckmirror API. These are projections of the Moxfield wire types and the
// shape persisted into the cache store.
package models

import "time"

// Author identifies a Moxfield user attached to a deck.
type Author struct {
	UserName        string `json:"user_name"`
	DisplayName     string `json:"display_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// DeckStats aggregates a deck's public counters.
type DeckStats struct {
	LikeCount     int `json:"like_count"`
	ViewCount     int `json:"view_count"`
	CommentCount  int `json:"comment_count"`
	BookmarkCount int `json:"bookmark_count"`
}

// DeckCard is a single weighted card entry within a board. Card carries the
// raw upstream card object untouched.
type DeckCard struct {
	Quantity int            `json:"quantity"`
	Finish   string         `json:"finish,omitempty"`
	IsFoil   bool           `json:"is_foil,omitempty"`
	IsAlter  bool           `json:"is_alter,omitempty"`
	IsProxy  bool           `json:"is_proxy,omitempty"`
	Card     map[string]any `json:"card"`
}

// DeckBoard is one named card group (mainboard, sideboard, commanders, ...)
// within a deck.
type DeckBoard struct {
	Name  string     `json:"name"`
	Count int        `json:"count"`
	Cards []DeckCard `json:"cards"`
}

// DeckTag lists the author-assigned tags for one card.
type DeckTag struct {
	CardName string   `json:"card_name"`
	Tags     []string `json:"tags"`
}

// UserSummary is the top-level user descriptor returned by the API.
type UserSummary struct {
	UserName        string           `json:"user_name"`
	DisplayName     string           `json:"display_name,omitempty"`
	ProfileImageURL string           `json:"profile_image_url,omitempty"`
	ProfileURL      string           `json:"profile_url,omitempty"`
	Badges          []map[string]any `json:"badges"`
}

// DeckSummary is the lightweight deck projection without card lists.
type DeckSummary struct {
	ID            string     `json:"id,omitempty"`
	PublicID      string     `json:"public_id"`
	Name          string     `json:"name"`
	Format        string     `json:"format"`
	PublicURL     string     `json:"public_url,omitempty"`
	Visibility    string     `json:"visibility,omitempty"`
	Description   string     `json:"description"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
	Stats         DeckStats  `json:"stats"`
	CreatedBy     *Author    `json:"created_by,omitempty"`
	Authors       []Author   `json:"authors"`
	Tags          []DeckTag  `json:"tags"`
	Hubs          []string   `json:"hubs"`
	Colors        []string   `json:"colors"`
	ColorIdentity []string   `json:"color_identity"`
}

// DeckDetail is the full deck projection including the card breakdown.
type DeckDetail struct {
	DeckSummary

	Boards []DeckBoard      `json:"boards"`
	Tokens []map[string]any `json:"tokens"`
}

// UserDecksResponse is the payload for full-detail deck routes.
type UserDecksResponse struct {
	User       UserSummary  `json:"user"`
	TotalDecks int          `json:"total_decks"`
	Decks      []DeckDetail `json:"decks"`
}

// UserDeckSummariesResponse is the payload for summary-only deck routes.
type UserDeckSummariesResponse struct {
	User       UserSummary   `json:"user"`
	TotalDecks int           `json:"total_decks"`
	Decks      []DeckSummary `json:"decks"`
}
