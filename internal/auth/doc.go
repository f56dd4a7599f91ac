// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package auth provides credential and session-token primitives for
// Bandmate Harmony.
//
// # Domain Types
//
// Account values should be created through NewAccount, which validates
// the handle and required fields. Direct struct initialization bypasses
// validation and may create invalid state. Repository implementations
// receive pre-validated values from the constructor.
//
// # Services
//
// Service coordinates the credential lifecycle: Register, Login, WhoAmI,
// and Logout. Tokens are self-contained signed bearer credentials with an
// embedded expiry; the server keeps no session state and cannot revoke a
// token before it expires.
package auth
