// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package httpapi exposes the REST API: authentication, profiles, and
// events.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/bandmate/harmony/internal/auth"
	"github.com/bandmate/harmony/internal/events"
	"github.com/bandmate/harmony/internal/observability"
	"github.com/bandmate/harmony/internal/profile"
)

// Server serves the REST API.
type Server struct {
	addr       string
	auth       *auth.Service
	tokens     *auth.TokenIssuer
	profiles   *profile.Service
	events     *events.Service
	metrics    *observability.Metrics
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Deps carries the server's dependencies. Metrics may be nil when the
// observability server is disabled.
type Deps struct {
	Auth     *auth.Service
	Tokens   *auth.TokenIssuer
	Profiles *profile.Service
	Events   *events.Service
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// NewServer creates an API server listening on addr.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if deps.Tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if deps.Profiles == nil {
		return nil, oops.Errorf("profile service is required")
	}
	if deps.Events == nil {
		return nil, oops.Errorf("events service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:     addr,
		auth:     deps.Auth,
		tokens:   deps.Tokens,
		profiles: deps.Profiles,
		events:   deps.Events,
		metrics:  deps.Metrics,
		logger:   logger,
	}, nil
}

// Router builds the chi router with all API routes. Exposed so tests can
// drive the API through httptest without binding a socket.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(countRequests(s.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
			r.Post("/logout", s.handleLogout)
		})
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/{id}", s.handleGetProfile)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Put("/{id}", s.handleUpdateProfile)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.handleListEvents)
		r.Get("/search", s.handleSearchEvents)
		r.Get("/{id}", s.handleGetEvent)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateEvent)
		})
	})

	return r
}

// Start begins serving the API.
// It returns an error channel that will receive any errors from the HTTP
// server after it starts. The channel is closed when the server stops
// gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
