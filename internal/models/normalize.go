// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package models

import (
	"sort"

	"github.com/edh-podlog/deckmirror/internal/models/moxfield"
)

const profileURLBase = "https://www.moxfield.com/users/"

// boardOrder fixes the presentation order of the well-known board names.
// Boards not listed here sort alphabetically after these.
var boardOrder = []string{
	"commanders",
	"companions",
	"mainboard",
	"sideboard",
	"maybeboard",
	"attractions",
	"stickers",
}

// NormalizeUser projects an upstream search entry into a UserSummary.
func NormalizeUser(entry moxfield.UserSearchEntry) UserSummary {
	badges := entry.Badges
	if badges == nil {
		badges = []map[string]any{}
	}
	return UserSummary{
		UserName:        entry.UserName,
		DisplayName:     entry.DisplayName,
		ProfileImageURL: entry.ProfileImageURL,
		ProfileURL:      profileURLBase + entry.UserName,
		Badges:          badges,
	}
}

// NormalizeDeckSummary projects an upstream deck listing entry into a
// DeckSummary.
func NormalizeDeckSummary(d moxfield.Deck) DeckSummary {
	return DeckSummary{
		ID:            d.ID,
		PublicID:      d.PublicID,
		Name:          d.Name,
		Format:        d.Format,
		PublicURL:     d.PublicURL,
		Visibility:    d.Visibility,
		Description:   d.Description,
		CreatedAt:     d.CreatedAtUTC,
		LastUpdatedAt: d.LastUpdatedAtUTC,
		Stats: DeckStats{
			LikeCount:     d.LikeCount,
			ViewCount:     d.ViewCount,
			CommentCount:  d.CommentCount,
			BookmarkCount: d.BookmarkCount,
		},
		CreatedBy:     normalizeAuthorPtr(d.CreatedByUser),
		Authors:       normalizeAuthors(d.Authors),
		Tags:          normalizeTags(d.AuthorTags),
		Hubs:          normalizeHubs(d.Hubs),
		Colors:        emptyIfNil(d.Colors),
		ColorIdentity: emptyIfNil(d.ColorIdentity),
	}
}

// NormalizeDeckDetail projects an upstream full deck document, converting the
// keyed board map into the ordered board slice.
func NormalizeDeckDetail(d moxfield.DeckDetail) DeckDetail {
	tokens := d.Tokens
	if tokens == nil {
		tokens = []map[string]any{}
	}
	return DeckDetail{
		DeckSummary: NormalizeDeckSummary(d.Deck),
		Boards:      normalizeBoards(d.Boards),
		Tokens:      tokens,
	}
}

func normalizeAuthorPtr(u *moxfield.UserSearchEntry) *Author {
	if u == nil {
		return nil
	}
	a := normalizeAuthor(*u)
	return &a
}

func normalizeAuthor(u moxfield.UserSearchEntry) Author {
	return Author{
		UserName:        u.UserName,
		DisplayName:     u.DisplayName,
		ProfileImageURL: u.ProfileImageURL,
	}
}

func normalizeAuthors(users []moxfield.UserSearchEntry) []Author {
	authors := make([]Author, 0, len(users))
	for _, u := range users {
		authors = append(authors, normalizeAuthor(u))
	}
	return authors
}

// normalizeTags flattens the card-name keyed tag map into a slice sorted by
// card name so responses are stable across syncs.
func normalizeTags(tags map[string][]string) []DeckTag {
	out := make([]DeckTag, 0, len(tags))
	for name, list := range tags {
		if list == nil {
			list = []string{}
		}
		out = append(out, DeckTag{CardName: name, Tags: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardName < out[j].CardName })
	return out
}

func normalizeHubs(hubs []moxfield.Hub) []string {
	out := make([]string, 0, len(hubs))
	for _, h := range hubs {
		out = append(out, h.Name)
	}
	return out
}

// normalizeBoards converts the keyed board map into a deterministic slice:
// well-known boards first in their fixed order, any remaining boards after
// them alphabetically. Empty boards are kept so counts stay faithful to the
// upstream document.
func normalizeBoards(boards map[string]moxfield.Board) []DeckBoard {
	seen := make(map[string]bool, len(boards))
	names := make([]string, 0, len(boards))
	for _, name := range boardOrder {
		if _, ok := boards[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(boards))
	for name := range boards {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	out := make([]DeckBoard, 0, len(names))
	for _, name := range names {
		out = append(out, normalizeBoard(name, boards[name]))
	}
	return out
}

// normalizeBoard flattens a board's card map into a slice sorted by the card
// entry key, which upstream keys by card identifier.
func normalizeBoard(name string, b moxfield.Board) DeckBoard {
	keys := make([]string, 0, len(b.Cards))
	for k := range b.Cards {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cards := make([]DeckCard, 0, len(keys))
	for _, k := range keys {
		entry := b.Cards[k]
		card := entry.Card
		if card == nil {
			card = map[string]any{}
		}
		cards = append(cards, DeckCard{
			Quantity: entry.Quantity,
			Finish:   entry.Finish,
			IsFoil:   entry.IsFoil,
			IsAlter:  entry.IsAlter,
			IsProxy:  entry.IsProxy,
			Card:     card,
		})
	}
	return DeckBoard{Name: name, Count: b.Count, Cards: cards}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
