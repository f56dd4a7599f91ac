// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/bandmate/harmony/internal/events"
)

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
			Code:    "UNAUTHENTICATED",
			Message: "authentication required",
		}})
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_FAILED",
			Message: "invalid JSON body",
		}})
		return
	}

	event, err := s.events.Create(r.Context(), caller, events.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		Venue:       req.Venue,
		Kind:        req.Kind,
		Genre:       req.Genre,
		Capacity:    req.Capacity,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(event))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{
			Code:    "NOT_FOUND",
			Message: "event not found",
		}})
		return
	}

	event, err := s.events.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTO(event))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.events.List(r.Context(), limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(list))
}

func (s *Server) handleSearchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	list, err := s.events.Search(r.Context(), events.SearchFilter{
		Query: q.Get("q"),
		Genre: q.Get("genre"),
		Kind:  q.Get("kind"),
		Limit: limit,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventDTOs(list))
}
