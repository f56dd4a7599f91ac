// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package postgres implements the profile repository over PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bandmate/harmony/internal/profile"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProfileRepository implements profile.Repository using PostgreSQL.
// Profile columns live on the accounts table.
type ProfileRepository struct {
	db Querier
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db Querier) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, handle, given_name, family_name, city, bio, avatar_url,
	instruments, genres, experience, availability, contacts, updated_at`

// Get retrieves a profile by account ID.
func (r *ProfileRepository) Get(ctx context.Context, id ulid.ULID) (*profile.Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").
			With("id", id.String()).
			Wrap(profile.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get profile").
			With("id", id.String()).
			Wrap(err)
	}
	return p, nil
}

// Apply applies the non-nil fields of the update and refreshes updated_at.
func (r *ProfileRepository) Apply(ctx context.Context, id ulid.ULID, update profile.Update) (*profile.Profile, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	appendSet := func(column string, value any) {
		setParts = append(setParts, column+" = $"+strconv.Itoa(idx))
		args = append(args, value)
		idx++
	}

	if update.GivenName != nil {
		appendSet("given_name", *update.GivenName)
	}
	if update.FamilyName != nil {
		appendSet("family_name", *update.FamilyName)
	}
	if update.City != nil {
		appendSet("city", *update.City)
	}
	if update.Bio != nil {
		appendSet("bio", *update.Bio)
	}
	if update.AvatarURL != nil {
		appendSet("avatar_url", *update.AvatarURL)
	}
	if update.Instruments != nil {
		appendSet("instruments", update.Instruments)
	}
	if update.Genres != nil {
		appendSet("genres", update.Genres)
	}
	if update.Experience != nil {
		appendSet("experience", *update.Experience)
	}
	if update.Availability != nil {
		availJSON, err := json.Marshal(update.Availability)
		if err != nil {
			return nil, oops.Code("PROFILE_UPDATE_FAILED").
				With("operation", "marshal availability").
				Wrap(err)
		}
		appendSet("availability", availJSON)
	}
	if update.Contacts != nil {
		contactsJSON, err := json.Marshal(update.Contacts)
		if err != nil {
			return nil, oops.Code("PROFILE_UPDATE_FAILED").
				With("operation", "marshal contacts").
				Wrap(err)
		}
		appendSet("contacts", contactsJSON)
	}
	if len(setParts) == 0 {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("no fields to update")
	}

	appendSet("updated_at", time.Now())
	args = append(args, id.String())

	row := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET `+strings.Join(setParts, ", ")+`
		WHERE id = $`+strconv.Itoa(idx)+`
		RETURNING `+profileColumns,
		args...,
	)

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").
			With("id", id.String()).
			Wrap(profile.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_UPDATE_FAILED").
			With("operation", "update profile").
			With("id", id.String()).
			Wrap(err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var (
		p                profile.Profile
		idStr            string
		availabilityJSON []byte
		contactsJSON     []byte
	)
	err := row.Scan(
		&idStr,
		&p.Handle,
		&p.GivenName,
		&p.FamilyName,
		&p.City,
		&p.Bio,
		&p.AvatarURL,
		&p.Instruments,
		&p.Genres,
		&p.Experience,
		&availabilityJSON,
		&contactsJSON,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PROFILE_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}

	if len(availabilityJSON) > 0 {
		if err := json.Unmarshal(availabilityJSON, &p.Availability); err != nil {
			return nil, oops.Code("PROFILE_CORRUPT_JSON").
				With("column", "availability").
				Wrap(err)
		}
	}
	if len(contactsJSON) > 0 {
		if err := json.Unmarshal(contactsJSON, &p.Contacts); err != nil {
			return nil, oops.Code("PROFILE_CORRUPT_JSON").
				With("column", "contacts").
				Wrap(err)
		}
	}
	return &p, nil
}
