// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

package services

import (
	"context"
	"time"

	"github.com/edh-podlog/deckmirror/internal/store"
)

// StoreGCService runs the cache store's value-log garbage collection loop
// under supervision.
type StoreGCService struct {
	store        *store.Store
	interval     time.Duration
	discardRatio float64
}

// NewStoreGCService creates a supervised GC loop for the cache store.
func NewStoreGCService(s *store.Store, interval time.Duration, discardRatio float64) *StoreGCService {
	return &StoreGCService{
		store:        s,
		interval:     interval,
		discardRatio: discardRatio,
	}
}

// Serve implements suture.Service. Blocks until the context is cancelled.
func (s *StoreGCService) Serve(ctx context.Context) error {
	s.store.RunGC(ctx, s.interval, s.discardRatio)
	return ctx.Err()
}

func (s *StoreGCService) String() string {
	return "store-gc"
}
