// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_FAILED",
			Message: "invalid JSON body",
		}})
		return
	}

	account, token, err := s.auth.Register(r.Context(), toRegisterParams(req))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toAccountDTO(account)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_FAILED",
			Message: "invalid JSON body",
		}})
		return
	}

	account, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		writeError(w, s.logger, err)
		return
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toAccountDTO(account)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := s.auth.WhoAmI(r.Context(), callerToken(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: toAccountDTO(account)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), callerToken(r.Context())); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
