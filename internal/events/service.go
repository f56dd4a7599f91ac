// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides event operations.
type Service struct {
	events Repository
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(events Repository, logger *slog.Logger) (*Service, error) {
	if events == nil {
		return nil, oops.Errorf("events repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{events: events, logger: logger}, nil
}

// CreateParams carries event creation input. CreatedBy is taken from the
// authenticated caller, never from the request body.
type CreateParams struct {
	Title       string
	Description *string
	StartsAt    time.Time
	Venue       *string
	Kind        *string
	Genre       *string
	Capacity    *int
}

// Create validates and stores a new event owned by createdBy.
func (s *Service) Create(ctx context.Context, createdBy ulid.ULID, params CreateParams) (*Event, error) {
	event, err := NewEvent(params.Title, params.StartsAt, createdBy)
	if err != nil {
		return nil, err
	}
	event.Description = params.Description
	event.Venue = params.Venue
	event.Kind = params.Kind
	event.Genre = params.Genre
	event.Capacity = params.Capacity

	if err := s.events.Insert(ctx, event); err != nil {
		return nil, oops.Code("STORE_FAILED").
			With("operation", "insert event").
			Wrap(err)
	}

	s.logger.Info("event created",
		"event_id", event.ID.String(),
		"created_by", createdBy.String())

	return event, nil
}

// Get loads an event by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Event, error) {
	event, err := s.events.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("NOT_FOUND").
				With("event_id", id.String()).
				Errorf("event not found")
		}
		return nil, oops.Code("STORE_FAILED").
			With("operation", "get event").
			Wrap(err)
	}
	return event, nil
}

// List returns upcoming and past events, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*Event, error) {
	limit = clampLimit(limit)
	list, err := s.events.List(ctx, limit)
	if err != nil {
		return nil, oops.Code("STORE_FAILED").
			With("operation", "list events").
			Wrap(err)
	}
	return list, nil
}

// Search returns events matching the filter.
func (s *Service) Search(ctx context.Context, filter SearchFilter) ([]*Event, error) {
	filter.Limit = clampLimit(filter.Limit)
	list, err := s.events.Search(ctx, filter)
	if err != nil {
		return nil, oops.Code("STORE_FAILED").
			With("operation", "search events").
			Wrap(err)
	}
	return list, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}
