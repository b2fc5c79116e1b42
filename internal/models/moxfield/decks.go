// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package moxfield

import "time"

// DeckSearchPage represents one page of the /v2/decks/search-sfw response.
type DeckSearchPage struct {
	PageNumber   int    `json:"pageNumber"`
	PageSize     int    `json:"pageSize"`
	TotalResults int    `json:"totalResults"`
	TotalPages   int    `json:"totalPages"`
	Data         []Deck `json:"data"`
}

// Deck is the lightweight deck record returned by the listing endpoint.
// It carries no board contents.
type Deck struct {
	ID               string     `json:"id"`
	PublicID         string     `json:"publicId"`
	Name             string     `json:"name"`
	Format           string     `json:"format"`
	PublicURL        string     `json:"publicUrl"`
	Visibility       string     `json:"visibility"`
	Description      string     `json:"description"`
	CreatedAtUTC     *time.Time `json:"createdAtUtc"`
	LastUpdatedAtUTC *time.Time `json:"lastUpdatedAtUtc"`

	LikeCount     int `json:"likeCount"`
	ViewCount     int `json:"viewCount"`
	CommentCount  int `json:"commentCount"`
	BookmarkCount int `json:"bookmarkCount"`

	CreatedByUser *UserSearchEntry  `json:"createdByUser"`
	Authors       []UserSearchEntry `json:"authors"`

	AuthorTags    map[string][]string `json:"authorTags"`
	Hubs          []Hub               `json:"hubs"`
	Colors        []string            `json:"colors"`
	ColorIdentity []string            `json:"colorIdentity"`
}

// Hub is a curated Moxfield category a deck is filed under.
type Hub struct {
	Name string `json:"name"`
}

// DeckDetail is the full deck document returned by /v3/decks/all/{publicId}.
// Boards is keyed by board name (mainboard, sideboard, commanders, ...).
type DeckDetail struct {
	Deck

	Boards map[string]Board `json:"boards"`
	Tokens []map[string]any `json:"tokens"`
}

// Board is one named card group inside a deck.
type Board struct {
	Count int                  `json:"count"`
	Cards map[string]CardEntry `json:"cards"`
}

// CardEntry is one weighted card slot within a board. Card holds the raw
// card object; Deckmirror passes it through without interpreting it.
type CardEntry struct {
	Quantity int            `json:"quantity"`
	Finish   string         `json:"finish"`
	IsFoil   bool           `json:"isFoil"`
	IsAlter  bool           `json:"isAlter"`
	IsProxy  bool           `json:"isProxy"`
	Card     map[string]any `json:"card"`
}
