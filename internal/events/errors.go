// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package events

import "errors"

// ErrNotFound is returned when a requested event does not exist.
var ErrNotFound = errors.New("not found")
