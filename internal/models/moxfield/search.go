// Deckmirror - Moxfield Deck Proxy and Cache
// Copyright 2026 Deckmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edh-podlog/deckmirror

// Package moxfield declares the wire types returned by the public Moxfield
// API endpoints Deckmirror consumes. Only the fields the service projects
// into its own models are declared; unknown fields are ignored on decode.
package moxfield

// UserSearchPage represents one page of the /v2/users/search-sfw response.
type UserSearchPage struct {
	PageNumber   int               `json:"pageNumber"`
	PageSize     int               `json:"pageSize"`
	TotalResults int               `json:"totalResults"`
	TotalPages   int               `json:"totalPages"`
	Data         []UserSearchEntry `json:"data"`
}

// UserSearchEntry is one matched user in the search listing.
type UserSearchEntry struct {
	UserName        string           `json:"userName"`
	DisplayName     string           `json:"displayName"`
	ProfileImageURL string           `json:"profileImageUrl"`
	Badges          []map[string]any `json:"badges"`
}
