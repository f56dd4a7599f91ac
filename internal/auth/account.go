// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package auth

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Handle constraints.
const (
	MinHandleLength = 3
	MaxHandleLength = 24

	// HandleSuffixAttempts bounds how many numeric suffixes are tried
	// when a derived handle collides before registration gives up.
	HandleSuffixAttempts = 10
)

// handleRegex matches handles that start with a letter and contain only
// letters, numbers, and underscores.
var handleRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// handleStripRegex removes every character not allowed in a handle.
var handleStripRegex = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Account represents a registered user account.
type Account struct {
	ID           ulid.ULID
	Handle       string
	Email        string
	PasswordHash string
	GivenName    *string
	FamilyName   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates a validated Account. The password hash must already
// be computed; plaintext never reaches this constructor.
func NewAccount(handle, email, passwordHash string, givenName, familyName *string) (*Account, error) {
	if err := ValidateHandle(handle); err != nil {
		return nil, err
	}
	if email == "" {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Handle:       handle,
		Email:        email,
		PasswordHash: passwordHash,
		GivenName:    givenName,
		FamilyName:   familyName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateHandle validates a handle against the rules:
//   - MinHandleLength to MaxHandleLength characters
//   - must start with a letter
//   - only letters, numbers, and underscores
func ValidateHandle(handle string) error {
	if handle == "" {
		return oops.Code("VALIDATION_FAILED").Errorf("handle cannot be empty")
	}
	if len(handle) < MinHandleLength {
		return oops.Code("VALIDATION_FAILED").
			With("min", MinHandleLength).
			Errorf("handle must be at least %d characters", MinHandleLength)
	}
	if len(handle) > MaxHandleLength {
		return oops.Code("VALIDATION_FAILED").
			With("max", MaxHandleLength).
			Errorf("handle must be at most %d characters", MaxHandleLength)
	}
	if !handleRegex.MatchString(handle) {
		return oops.Code("VALIDATION_FAILED").
			Errorf("handle must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// DeriveHandle produces a base handle candidate from an email address:
// the local part, stripped to the safe character set and truncated to
// MaxHandleLength. Falls back to "user" when nothing usable remains.
func DeriveHandle(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	base := handleStripRegex.ReplaceAllString(local, "")
	// A handle must start with a letter; drop leading digits/underscores.
	for base != "" && !isLetter(base[0]) {
		base = base[1:]
	}
	if len(base) > MaxHandleLength {
		base = base[:MaxHandleLength]
	}
	if len(base) < MinHandleLength {
		return "user"
	}
	return base
}

// SuffixedHandle returns the nth collision fallback for a base handle.
// The base is truncated so the result stays within MaxHandleLength.
func SuffixedHandle(base string, n int) string {
	suffix := "_" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxHandleLength {
		base = base[:MaxHandleLength-len(suffix)]
	}
	return base + suffix
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// AccountUpdate carries a partial account mutation. Nil fields are
// left untouched.
type AccountUpdate struct {
	Handle       *string
	PasswordHash *string
	GivenName    *string
	FamilyName   *string
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Insert stores a new account. Returns ErrConflict (wrapped) when the
	// email or handle unique constraint is violated.
	Insert(ctx context.Context, account *Account) error

	// FindByID retrieves an account by ID. Returns ErrNotFound if absent.
	FindByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// FindByEmail retrieves an account by exact email match.
	// Returns ErrNotFound if absent.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByHandle retrieves an account by handle.
	// Returns ErrNotFound if absent.
	FindByHandle(ctx context.Context, handle string) (*Account, error)

	// Update applies a partial mutation and refreshes updated_at.
	// Returns ErrNotFound if the account does not exist.
	Update(ctx context.Context, id ulid.ULID, update AccountUpdate) (*Account, error)
}
