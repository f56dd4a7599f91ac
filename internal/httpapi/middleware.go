// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/bandmate/harmony/internal/observability"
)

type contextKey string

const (
	accountIDKey contextKey = "account_id"
	rawTokenKey  contextKey = "raw_token"
)

// bearerToken extracts the token from an Authorization: Bearer header.
// Returns empty string if the header is missing or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth verifies the bearer token and stores the account ID and the
// raw token in the request context. Requests without a verifiable token
// are rejected with 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
				Code:    "UNAUTHENTICATED",
				Message: "missing bearer token",
			}})
			return
		}

		id, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountIDKey, id)
		ctx = context.WithValue(ctx, rawTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerID returns the authenticated account ID set by requireAuth.
func callerID(ctx context.Context) (ulid.ULID, bool) {
	id, ok := ctx.Value(accountIDKey).(ulid.ULID)
	return id, ok
}

// callerToken returns the verified raw token set by requireAuth.
func callerToken(ctx context.Context) string {
	token, _ := ctx.Value(rawTokenKey).(string)
	return token
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// countRequests records per-route request counts. The route label uses
// the chi pattern, not the raw path, to bound label cardinality.
func countRequests(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if metrics == nil {
				return
			}
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestsTotal.
				WithLabelValues(route, strconv.Itoa(rec.status)).
				Inc()
		})
	}
}
