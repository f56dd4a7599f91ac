// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package postgres implements the events repository over PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bandmate/harmony/internal/events"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EventRepository implements events.Repository using PostgreSQL.
type EventRepository struct {
	db Querier
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db Querier) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, starts_at, venue, kind, genre, capacity,
	created_by, created_at, updated_at`

// Insert stores a new event.
func (r *EventRepository) Insert(ctx context.Context, event *events.Event) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO events (
			id, title, description, starts_at, venue, kind, genre,
			capacity, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		event.ID.String(),
		event.Title,
		event.Description,
		event.StartsAt,
		event.Venue,
		event.Kind,
		event.Genre,
		event.Capacity,
		event.CreatedBy.String(),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return oops.Code("EVENT_INSERT_FAILED").
			With("operation", "insert event").
			With("event_id", event.ID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves an event by ID.
func (r *EventRepository) Get(ctx context.Context, id ulid.ULID) (*events.Event, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1
	`, id.String())

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").
			With("id", id.String()).
			Wrap(events.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("EVENT_GET_FAILED").
			With("operation", "get event").
			With("id", id.String()).
			Wrap(err)
	}
	return event, nil
}

// List returns events ordered by start time, newest first.
func (r *EventRepository) List(ctx context.Context, limit int) ([]*events.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		ORDER BY starts_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, oops.Code("EVENT_LIST_FAILED").
			With("operation", "list events").
			Wrap(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// Search returns events matching the filter, newest first. The free-text
// query is a parameterized ILIKE over title, description, and venue.
func (r *EventRepository) Search(ctx context.Context, filter events.SearchFilter) ([]*events.Event, error) {
	where := []string{}
	args := []any{}
	idx := 1

	if filter.Query != "" {
		pattern := "%" + escapeLike(filter.Query) + "%"
		where = append(where,
			"(title ILIKE $"+strconv.Itoa(idx)+
				" OR description ILIKE $"+strconv.Itoa(idx)+
				" OR venue ILIKE $"+strconv.Itoa(idx)+")")
		args = append(args, pattern)
		idx++
	}
	if filter.Genre != "" {
		where = append(where, "genre = $"+strconv.Itoa(idx))
		args = append(args, filter.Genre)
		idx++
	}
	if filter.Kind != "" {
		where = append(where, "kind = $"+strconv.Itoa(idx))
		args = append(args, filter.Kind)
		idx++
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY starts_at DESC LIMIT $` + strconv.Itoa(idx)
	args = append(args, filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("EVENT_SEARCH_FAILED").
			With("operation", "search events").
			Wrap(err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func collectEvents(rows pgx.Rows) ([]*events.Event, error) {
	var list []*events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, oops.Code("EVENT_SCAN_FAILED").Wrap(err)
		}
		list = append(list, event)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("EVENT_ROWS_FAILED").Wrap(err)
	}
	return list, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event        events.Event
		idStr        string
		createdByStr string
	)
	err := row.Scan(
		&idStr,
		&event.Title,
		&event.Description,
		&event.StartsAt,
		&event.Venue,
		&event.Kind,
		&event.Genre,
		&event.Capacity,
		&createdByStr,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if event.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("EVENT_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	if event.CreatedBy, err = ulid.Parse(createdByStr); err != nil {
		return nil, oops.Code("EVENT_CORRUPT_ID").
			With("created_by", createdByStr).
			Wrap(err)
	}
	return &event, nil
}
