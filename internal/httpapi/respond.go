// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/bandmate/harmony/pkg/errutil"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusForCode maps service error codes to HTTP statuses. Unknown codes
// fall through to 500 so internal detail never leaks by accident.
func statusForCode(code string) int {
	switch code {
	case "VALIDATION_FAILED":
		return http.StatusBadRequest
	case "INVALID_CREDENTIALS", "UNAUTHENTICATED":
		return http.StatusUnauthorized
	case "FORBIDDEN":
		return http.StatusForbidden
	case "NOT_FOUND":
		return http.StatusNotFound
	case "CONFLICT":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("response write failed", "error", err)
	}
}

// writeError maps a service error to its HTTP response. Internal errors
// are logged and masked with a generic message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := "INTERNAL"
	message := "internal server error"

	if oopsErr, ok := oops.AsOops(err); ok {
		if c, ok := oopsErr.Code().(string); ok && c != "" {
			code = c
		}
	}

	status := statusForCode(code)
	if status < http.StatusInternalServerError {
		message = err.Error()
	} else {
		errutil.LogError(logger, "request failed", err)
	}

	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
