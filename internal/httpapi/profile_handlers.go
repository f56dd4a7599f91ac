// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{
			Code:    "NOT_FOUND",
			Message: "profile not found",
		}})
		return
	}

	p, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

// handleUpdateProfile updates a profile. Callers may only update their
// own profile.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{
			Code:    "NOT_FOUND",
			Message: "profile not found",
		}})
		return
	}

	caller, ok := callerID(r.Context())
	if !ok || caller.Compare(id) != 0 {
		writeJSON(w, http.StatusForbidden, errorBody{Error: errorDetail{
			Code:    "FORBIDDEN",
			Message: "cannot update another account's profile",
		}})
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_FAILED",
			Message: "invalid JSON body",
		}})
		return
	}

	p, err := s.profiles.Update(r.Context(), id, req.toUpdate())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}
