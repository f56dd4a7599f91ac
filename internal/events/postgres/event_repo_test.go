// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/harmony/internal/events"
)

var eventCols = []string{
	"id", "title", "description", "starts_at", "venue", "kind", "genre",
	"capacity", "created_by", "created_at", "updated_at",
}

func testEvent() *events.Event {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &events.Event{
		ID:        ulid.Make(),
		Title:     "Open jam",
		StartsAt:  now.Add(24 * time.Hour),
		CreatedBy: ulid.Make(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func eventRow(e *events.Event) *pgxmock.Rows {
	return pgxmock.NewRows(eventCols).AddRow(
		e.ID.String(), e.Title, e.Description, e.StartsAt, e.Venue, e.Kind,
		e.Genre, e.Capacity, e.CreatedBy.String(), e.CreatedAt, e.UpdatedAt,
	)
}

func TestEventRepository_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	event := testEvent()
	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(event.ID.String(), event.Title, event.Description, event.StartsAt,
			event.Venue, event.Kind, event.Genre, event.Capacity,
			event.CreatedBy.String(), event.CreatedAt, event.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewEventRepository(mock)
	require.NoError(t, repo.Insert(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Get(t *testing.T) {
	t.Run("returns event", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		event := testEvent()
		mock.ExpectQuery(`WHERE id = \$1`).
			WithArgs(event.ID.String()).
			WillReturnRows(eventRow(event))

		repo := NewEventRepository(mock)
		got, err := repo.Get(context.Background(), event.ID)
		require.NoError(t, err)
		assert.Equal(t, event.Title, got.Title)
		assert.Equal(t, event.CreatedBy, got.CreatedBy)
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery(`WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnRows(pgxmock.NewRows(eventCols))

		repo := NewEventRepository(mock)
		_, err = repo.Get(context.Background(), id)
		require.Error(t, err)
		assert.ErrorIs(t, err, events.ErrNotFound)
	})
}

func TestEventRepository_Search(t *testing.T) {
	t.Run("combines text query with exact filters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		event := testEvent()
		mock.ExpectQuery(`title ILIKE \$1 OR description ILIKE \$1 OR venue ILIKE \$1\) AND genre = \$2 AND kind = \$3`).
			WithArgs("%jam%", "jazz", "session", 20).
			WillReturnRows(eventRow(event))

		repo := NewEventRepository(mock)
		got, err := repo.Search(context.Background(), events.SearchFilter{
			Query: "jam",
			Genre: "jazz",
			Kind:  "session",
			Limit: 20,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("escapes LIKE metacharacters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`title ILIKE \$1`).
			WithArgs(`%100\% metal\_night%`, 10).
			WillReturnRows(pgxmock.NewRows(eventCols))

		repo := NewEventRepository(mock)
		got, err := repo.Search(context.Background(), events.SearchFilter{
			Query: "100% metal_night",
			Limit: 10,
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `jam`, escapeLike(`jam`))
	assert.Equal(t, `100\%`, escapeLike(`100%`))
	assert.Equal(t, `a\_b`, escapeLike(`a_b`))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
}
