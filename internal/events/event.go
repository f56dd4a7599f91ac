// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package events manages musical events: creation, lookup, listing, and
// text search.
package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultListLimit bounds listing and search result sizes.
const DefaultListLimit = 50

// Event represents a musical event posted by an account.
type Event struct {
	ID          ulid.ULID
	Title       string
	Description *string
	StartsAt    time.Time
	Venue       *string
	Kind        *string
	Genre       *string
	Capacity    *int
	CreatedBy   ulid.ULID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent creates a validated Event owned by the given account.
func NewEvent(title string, startsAt time.Time, createdBy ulid.ULID) (*Event, error) {
	if title == "" {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("title is required")
	}
	if startsAt.IsZero() {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("start time is required")
	}
	if createdBy.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("owner account ID cannot be zero")
	}

	now := time.Now()
	return &Event{
		ID:        ulid.Make(),
		Title:     title,
		StartsAt:  startsAt,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SearchFilter narrows a search. Query matches title, description, and
// venue with a case-insensitive substring; Genre and Kind match exactly.
type SearchFilter struct {
	Query string
	Genre string
	Kind  string
	Limit int
}

// Repository manages event persistence.
type Repository interface {
	// Insert stores a new event.
	Insert(ctx context.Context, event *Event) error

	// Get retrieves an event by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id ulid.ULID) (*Event, error)

	// List returns events ordered by start time, newest first.
	List(ctx context.Context, limit int) ([]*Event, error)

	// Search returns events matching the filter, newest first.
	Search(ctx context.Context, filter SearchFilter) ([]*Event, error)
}
