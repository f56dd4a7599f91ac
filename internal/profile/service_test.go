// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/harmony/pkg/errutil"
)

// fakeProfileRepo is an in-memory Repository.
type fakeProfileRepo struct {
	profiles map[ulid.ULID]*Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[ulid.ULID]*Profile)}
}

func (r *fakeProfileRepo) Get(_ context.Context, id ulid.ULID) (*Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProfileRepo) Apply(_ context.Context, id ulid.ULID, update Update) (*Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.GivenName != nil {
		p.GivenName = update.GivenName
	}
	if update.FamilyName != nil {
		p.FamilyName = update.FamilyName
	}
	if update.City != nil {
		p.City = update.City
	}
	if update.Bio != nil {
		p.Bio = update.Bio
	}
	if update.AvatarURL != nil {
		p.AvatarURL = update.AvatarURL
	}
	if update.Instruments != nil {
		p.Instruments = update.Instruments
	}
	if update.Genres != nil {
		p.Genres = update.Genres
	}
	if update.Experience != nil {
		p.Experience = update.Experience
	}
	if update.Availability != nil {
		p.Availability = update.Availability
	}
	if update.Contacts != nil {
		p.Contacts = update.Contacts
	}
	p.UpdatedAt = time.Now()
	clone := *p
	return &clone, nil
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	id := ulid.Make()
	repo.profiles[id] = &Profile{ID: id, Handle: "alice"}

	t.Run("returns profile", func(t *testing.T) {
		p, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "alice", p.Handle)
	})

	t.Run("reports unknown account", func(t *testing.T) {
		_, err := svc.Get(ctx, ulid.Make())
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "NOT_FOUND")
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	repo := newFakeProfileRepo()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	id := ulid.Make()
	repo.profiles[id] = &Profile{ID: id, Handle: "alice"}

	t.Run("applies partial update", func(t *testing.T) {
		city := "Berlin"
		p, err := svc.Update(ctx, id, Update{
			City:        &city,
			Instruments: []string{"guitar", "bass"},
		})
		require.NoError(t, err)
		require.NotNil(t, p.City)
		assert.Equal(t, "Berlin", *p.City)
		assert.Equal(t, []string{"guitar", "bass"}, p.Instruments)
		assert.Equal(t, "alice", p.Handle, "untouched fields stay")
	})

	t.Run("rejects empty update", func(t *testing.T) {
		_, err := svc.Update(ctx, id, Update{})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("reports unknown account", func(t *testing.T) {
		bio := "drummer"
		_, err := svc.Update(ctx, ulid.Make(), Update{Bio: &bio})
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "NOT_FOUND")
	})
}
