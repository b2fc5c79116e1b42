// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

/*
store.go - BadgerDB Cache Store Lifecycle

This file owns the embedded BadgerDB instance backing the deck cache: opening
and closing the database, the value-log garbage collection loop, and the
adapter routing Badger's internal logging through zerolog.

Related Files:
  - repository.go: snapshot persistence and cached reads over the open DB
*/

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/edh-podlog/deckmirror/internal/config"
	"github.com/edh-podlog/deckmirror/internal/logging"
)

// Store is the BadgerDB-backed cache repository for synced Moxfield data.
//
// Thread Safety: safe for concurrent use; Badger handles transaction
// isolation internally.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the cache database described by cfg.
func Open(cfg *config.CacheConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(badgerLogger{}).
		WithInMemory(cfg.InMemory)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs Badger value-log garbage collection on the given interval until
// the context is cancelled. Badger reports ErrNoRewrite when a GC pass found
// nothing to reclaim; that is the common case and not an error.
func (s *Store) RunGC(ctx context.Context, interval time.Duration, discardRatio float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(discardRatio)
				if err != nil {
					break
				}
				// A successful pass may have created more reclaimable space.
			}
		}
	}
}

// badgerLogger adapts Badger's logger interface to zerolog. Badger's INFO
// chatter is demoted to debug to keep production logs quiet.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}
