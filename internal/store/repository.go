// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
repository.go - Snapshot Persistence and Cached Reads

This file implements the cache repository over BadgerDB. Each sync variant
(full, summaries) stores an independent snapshot per user:

  owner_full:<key>      -> ownerDoc (user profile, deck count, sync time)
  owner_summaries:<key> -> ownerDoc
  deck:<key>:<publicID>    -> storedDeck (full deck document + position)
  summary:<key>:<publicID> -> storedSummary

<key> is the canonical user key: the lowercased Moxfield handle. Writes
always use the canonical key, so "Alice" and "ALICE" share one snapshot.
Reads try the canonical key first and fall back to the literal handle, which
keeps documents written by earlier versions reachable.

Snapshot writes are atomic: one Badger transaction writes the owner doc plus
every deck, so readers never observe a half-written snapshot. Deck writes
are per-item upserts, not a delta: a deck absent from a newer sync stays
cached until removed explicitly through DeleteDeck.
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/edh-podlog/deckmirror/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	ownerFullKeyPrefix      = "owner_full:"
	ownerSummariesKeyPrefix = "owner_summaries:"
	deckKeyPrefix           = "deck:"
	summaryKeyPrefix        = "summary:"
)

// canonicalKey returns the canonical cache key for a Moxfield handle.
func canonicalKey(handle string) string {
	return strings.ToLower(handle)
}

// ownerDoc is the per-user, per-variant snapshot header.
type ownerDoc struct {
	UserName   string             `json:"user_name"`
	UserKey    string             `json:"user_key"`
	SyncedAt   time.Time          `json:"synced_at"`
	TotalDecks int                `json:"total_decks"`
	User       models.UserSummary `json:"user"`
}

// storedDeck wraps a full deck document with its position in the synced
// listing so reads can restore upstream order.
type storedDeck struct {
	Position int               `json:"position"`
	Deck     models.DeckDetail `json:"deck"`
}

// storedSummary wraps a deck summary with its listing position.
type storedSummary struct {
	Position int                `json:"position"`
	Deck     models.DeckSummary `json:"deck"`
}

// SaveFull upserts the user's full snapshot in a single transaction.
func (s *Store) SaveFull(ctx context.Context, user models.UserSummary, decks []models.DeckDetail) error {
	key := canonicalKey(user.UserName)

	return s.db.Update(func(txn *badger.Txn) error {
		doc := ownerDoc{
			UserName:   user.UserName,
			UserKey:    key,
			SyncedAt:   time.Now().UTC(),
			TotalDecks: len(decks),
			User:       user,
		}
		if err := setJSON(txn, ownerFullKeyPrefix+key, doc); err != nil {
			return err
		}

		for i, deck := range decks {
			entry := storedDeck{Position: i, Deck: deck}
			if err := setJSON(txn, deckKeyPrefix+key+":"+deck.PublicID, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSummaries upserts the user's summary snapshot in a single transaction.
func (s *Store) SaveSummaries(ctx context.Context, user models.UserSummary, decks []models.DeckSummary) error {
	key := canonicalKey(user.UserName)

	return s.db.Update(func(txn *badger.Txn) error {
		doc := ownerDoc{
			UserName:   user.UserName,
			UserKey:    key,
			SyncedAt:   time.Now().UTC(),
			TotalDecks: len(decks),
			User:       user,
		}
		if err := setJSON(txn, ownerSummariesKeyPrefix+key, doc); err != nil {
			return err
		}

		for i, deck := range decks {
			entry := storedSummary{Position: i, Deck: deck}
			if err := setJSON(txn, summaryKeyPrefix+key+":"+deck.PublicID, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// FetchFull returns the user's cached full snapshot, or (nil, nil) when the
// user has no full snapshot. An empty deck list is a valid snapshot, distinct
// from a missing one.
func (s *Store) FetchFull(ctx context.Context, username string) (*models.UserDecksResponse, error) {
	var resp *models.UserDecksResponse

	err := s.db.View(func(txn *badger.Txn) error {
		owner, err := getOwner(txn, ownerFullKeyPrefix, username)
		if err != nil || owner == nil {
			return err
		}

		var entries []storedDeck
		err = scanPrefix(txn, deckKeyPrefix+owner.UserKey+":", func(val []byte) error {
			var entry storedDeck
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
		if err != nil {
			return err
		}
		// Positions can collide when a stale deck from an earlier sync
		// survives an upsert pass; break ties by public ID.
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Position != entries[j].Position {
				return entries[i].Position < entries[j].Position
			}
			return entries[i].Deck.PublicID < entries[j].Deck.PublicID
		})

		decks := make([]models.DeckDetail, 0, len(entries))
		for _, e := range entries {
			decks = append(decks, e.Deck)
		}
		resp = &models.UserDecksResponse{
			User:       owner.User,
			TotalDecks: owner.TotalDecks,
			Decks:      decks,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FetchSummaries returns the user's cached summary snapshot, or (nil, nil)
// when the user has no summary snapshot.
func (s *Store) FetchSummaries(ctx context.Context, username string) (*models.UserDeckSummariesResponse, error) {
	var resp *models.UserDeckSummariesResponse

	err := s.db.View(func(txn *badger.Txn) error {
		owner, err := getOwner(txn, ownerSummariesKeyPrefix, username)
		if err != nil || owner == nil {
			return err
		}

		var entries []storedSummary
		err = scanPrefix(txn, summaryKeyPrefix+owner.UserKey+":", func(val []byte) error {
			var entry storedSummary
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			return nil
		})
		if err != nil {
			return err
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Position != entries[j].Position {
				return entries[i].Position < entries[j].Position
			}
			return entries[i].Deck.PublicID < entries[j].Deck.PublicID
		})

		decks := make([]models.DeckSummary, 0, len(entries))
		for _, e := range entries {
			decks = append(decks, e.Deck)
		}
		resp = &models.UserDeckSummariesResponse{
			User:       owner.User,
			TotalDecks: owner.TotalDecks,
			Decks:      decks,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteDeck removes one deck from the user's cached snapshots. The deck may
// be addressed by public ID or internal ID. Both variants are cleaned and the
// full-snapshot deck count is recomputed in the same transaction. The
// returned bool reports whether the deck was present in the full snapshot,
// matching the semantics of the live deck collection.
func (s *Store) DeleteDeck(ctx context.Context, username, deckID string) (bool, error) {
	removedFull := false

	err := s.db.Update(func(txn *badger.Txn) error {
		fullOwner, err := getOwner(txn, ownerFullKeyPrefix, username)
		if err != nil {
			return err
		}
		if fullOwner != nil {
			remaining, removed, err := removeDeckEntries(txn, deckKeyPrefix+fullOwner.UserKey+":", deckID, func(val []byte) (string, string, error) {
				var entry storedDeck
				if err := json.Unmarshal(val, &entry); err != nil {
					return "", "", err
				}
				return entry.Deck.PublicID, entry.Deck.ID, nil
			})
			if err != nil {
				return err
			}
			if removed {
				removedFull = true
				fullOwner.TotalDecks = remaining
				if err := setJSON(txn, ownerFullKeyPrefix+fullOwner.UserKey, *fullOwner); err != nil {
					return err
				}
			}
		}

		summaryOwner, err := getOwner(txn, ownerSummariesKeyPrefix, username)
		if err != nil {
			return err
		}
		if summaryOwner != nil {
			remaining, removed, err := removeDeckEntries(txn, summaryKeyPrefix+summaryOwner.UserKey+":", deckID, func(val []byte) (string, string, error) {
				var entry storedSummary
				if err := json.Unmarshal(val, &entry); err != nil {
					return "", "", err
				}
				return entry.Deck.PublicID, entry.Deck.ID, nil
			})
			if err != nil {
				return err
			}
			if removed {
				summaryOwner.TotalDecks = remaining
				if err := setJSON(txn, ownerSummariesKeyPrefix+summaryOwner.UserKey, *summaryOwner); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removedFull, nil
}

// CountDecks returns the number of decks stored in the user's full snapshot.
// Returns 0 when the user has no full snapshot.
func (s *Store) CountDecks(ctx context.Context, username string) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		owner, err := getOwner(txn, ownerFullKeyPrefix, username)
		if err != nil || owner == nil {
			return err
		}
		return scanPrefix(txn, deckKeyPrefix+owner.UserKey+":", func([]byte) error {
			count++
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getOwner loads a variant's owner doc for a handle, trying the canonical
// key first and the literal handle second. Returns (nil, nil) when neither
// key exists.
func getOwner(txn *badger.Txn, prefix, handle string) (*ownerDoc, error) {
	keys := []string{canonicalKey(handle)}
	if keys[0] != handle {
		keys = append(keys, handle)
	}

	for _, key := range keys {
		item, err := txn.Get([]byte(prefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get owner doc: %w", err)
		}

		var doc ownerDoc
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
		if err != nil {
			return nil, fmt.Errorf("decode owner doc: %w", err)
		}
		if doc.UserKey == "" {
			doc.UserKey = key
		}
		return &doc, nil
	}
	return nil, nil
}

// removeDeckEntries deletes all entries under prefix whose public ID or
// internal ID equals deckID. Returns the count of remaining entries and
// whether anything was deleted.
func removeDeckEntries(txn *badger.Txn, prefix, deckID string, ids func(val []byte) (string, string, error)) (int, bool, error) {
	remaining := 0
	removed := false
	var toDelete [][]byte

	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()

		var publicID, internalID string
		err := item.Value(func(val []byte) error {
			var err error
			publicID, internalID, err = ids(val)
			return err
		})
		if err != nil {
			return 0, false, err
		}

		if publicID == deckID || (internalID != "" && internalID == deckID) {
			toDelete = append(toDelete, item.KeyCopy(nil))
			removed = true
			continue
		}
		remaining++
	}
	it.Close()

	for _, key := range toDelete {
		if err := txn.Delete(key); err != nil {
			return 0, false, err
		}
	}
	return remaining, removed, nil
}

// setJSON marshals v and stores it under key within the transaction.
func setJSON(txn *badger.Txn, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// scanPrefix invokes fn with the value of every key under prefix.
func scanPrefix(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
