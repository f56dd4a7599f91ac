// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a storage-layer unique constraint
// (email or handle) is violated.
var ErrConflict = errors.New("conflict")

// ErrEmailTaken and ErrHandleTaken specialize ErrConflict so registration
// can retry handle collisions with a suffix while treating email
// collisions as terminal. Both satisfy errors.Is(err, ErrConflict).
var (
	ErrEmailTaken  = fmt.Errorf("email taken: %w", ErrConflict)
	ErrHandleTaken = fmt.Errorf("handle taken: %w", ErrConflict)
)
