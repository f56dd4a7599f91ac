// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides profile read and update operations.
type Service struct {
	profiles Repository
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(profiles Repository, logger *slog.Logger) (*Service, error) {
	if profiles == nil {
		return nil, oops.Errorf("profiles repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{profiles: profiles, logger: logger}, nil
}

// Get loads a profile by account ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Profile, error) {
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("NOT_FOUND").
				With("account_id", id.String()).
				Errorf("profile not found")
		}
		return nil, oops.Code("STORE_FAILED").
			With("operation", "get profile").
			Wrap(err)
	}
	return p, nil
}

// Update applies a partial mutation to the caller's own profile.
func (s *Service) Update(ctx context.Context, id ulid.ULID, update Update) (*Profile, error) {
	if update.IsEmpty() {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("no valid fields to update")
	}

	p, err := s.profiles.Apply(ctx, id, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("NOT_FOUND").
				With("account_id", id.String()).
				Errorf("profile not found")
		}
		return nil, oops.Code("STORE_FAILED").
			With("operation", "update profile").
			Wrap(err)
	}

	s.logger.Info("profile updated", "account_id", id.String())
	return p, nil
}
