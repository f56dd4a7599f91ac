// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package profile manages the public musician profile attached to each
// account: location, bio, instruments, genres, and contact details.
package profile

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Profile is the public view of an account plus its musician metadata.
// It never carries credential material.
type Profile struct {
	ID           ulid.ULID
	Handle       string
	GivenName    *string
	FamilyName   *string
	City         *string
	Bio          *string
	AvatarURL    *string
	Instruments  []string
	Genres       []string
	Experience   *string
	Availability map[string]any
	Contacts     map[string]any
	UpdatedAt    time.Time
}

// Update carries a partial profile mutation. Nil fields are left
// untouched; this is the allowlist of client-mutable fields.
type Update struct {
	GivenName    *string
	FamilyName   *string
	City         *string
	Bio          *string
	AvatarURL    *string
	Instruments  []string
	Genres       []string
	Experience   *string
	Availability map[string]any
	Contacts     map[string]any
}

// IsEmpty reports whether the update mutates nothing.
func (u Update) IsEmpty() bool {
	return u.GivenName == nil && u.FamilyName == nil && u.City == nil &&
		u.Bio == nil && u.AvatarURL == nil && u.Instruments == nil &&
		u.Genres == nil && u.Experience == nil &&
		u.Availability == nil && u.Contacts == nil
}

// Repository manages profile persistence. Profiles share the accounts
// table; the account ID is the join key.
type Repository interface {
	// Get retrieves a profile by account ID. Returns ErrNotFound if the
	// account does not exist.
	Get(ctx context.Context, id ulid.ULID) (*Profile, error)

	// Apply applies a partial update and refreshes updated_at.
	// Returns ErrNotFound if the account does not exist.
	Apply(ctx context.Context, id ulid.ULID, update Update) (*Profile, error)
}
