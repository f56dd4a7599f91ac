// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package profile

import "errors"

// ErrNotFound is returned when the referenced account does not exist.
var ErrNotFound = errors.New("not found")
