// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service provides registration, login, and token-validation operations.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   *TokenIssuer
	logger   *slog.Logger
}

// NewService creates a Service. All dependencies are required.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens *TokenIssuer) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, tokens *TokenIssuer, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

// dummyPasswordHash is verified against when no account matches the login
// email, so response time does not reveal whether the email is registered.
// This is NOT a real credential - it is a fake hash that will never match
// any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// RegisterParams carries registration input.
type RegisterParams struct {
	Email      string
	Password   string
	GivenName  *string
	FamilyName *string
}

// Register creates a new account and issues a session token.
// The handle is derived from the email local part; on collision, numeric
// suffixes are tried up to HandleSuffixAttempts. The storage layer's unique
// constraints are the correctness guarantee - the FindByEmail pre-check
// only exists for a friendlier error on the common case.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Account, string, error) {
	if params.Email == "" || params.Password == "" {
		return nil, "", oops.Code("VALIDATION_FAILED").Errorf("email and password are required")
	}

	if _, err := s.accounts.FindByEmail(ctx, params.Email); err == nil {
		return nil, "", oops.Code("CONFLICT").Errorf("account already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", oops.Code("STORE_FAILED").
			With("operation", "find account by email").
			Wrap(err)
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, "", err
	}

	base := DeriveHandle(params.Email)
	account, err := s.insertWithHandle(ctx, base, params, passwordHash)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("account registered",
		"account_id", account.ID.String(),
		"handle", account.Handle)

	return account, token, nil
}

// insertWithHandle attempts the insert under the base handle and then
// under suffixed variants while the handle constraint keeps colliding.
func (s *Service) insertWithHandle(ctx context.Context, base string, params RegisterParams, passwordHash string) (*Account, error) {
	for attempt := 0; attempt <= HandleSuffixAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = SuffixedHandle(base, attempt)
		}

		account, err := NewAccount(candidate, params.Email, passwordHash, params.GivenName, params.FamilyName)
		if err != nil {
			return nil, err
		}

		err = s.accounts.Insert(ctx, account)
		switch {
		case err == nil:
			return account, nil
		case errors.Is(err, ErrHandleTaken):
			continue
		case errors.Is(err, ErrConflict):
			// Email raced with a concurrent registration.
			return nil, oops.Code("CONFLICT").Errorf("account already exists")
		default:
			return nil, oops.Code("STORE_FAILED").
				With("operation", "insert account").
				Wrap(err)
		}
	}
	return nil, oops.Code("CONFLICT").
		With("handle", base).
		With("attempts", HandleSuffixAttempts).
		Errorf("could not allocate a unique handle")
}

// Login authenticates by email and password and issues a session token.
// Unknown email and wrong password produce the same error so callers
// cannot enumerate accounts, and the dummy-hash verification keeps the
// two paths close in response time.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, string, error) {
	if email == "" || password == "" {
		return nil, "", oops.Code("VALIDATION_FAILED").Errorf("email and password are required")
	}

	account, lookupErr := s.accounts.FindByEmail(ctx, email)

	targetHash := dummyPasswordHash
	accountExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("STORE_FAILED").
				With("operation", "find account by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid := s.hasher.Verify(password, targetHash)
	if !accountExists || !valid {
		return nil, "", oops.Code("INVALID_CREDENTIALS").Errorf("invalid email or password")
	}

	// Transparently upgrade hashes produced by the legacy backend or with
	// outdated cost parameters. Best effort - login succeeds regardless.
	if s.hasher.NeedsRehash(account.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if _, updErr := s.accounts.Update(ctx, account.ID, AccountUpdate{PasswordHash: &newHash}); updErr != nil {
				s.logger.Warn("password rehash update failed",
					"account_id", account.ID.String(),
					"error", updErr)
			} else {
				account.PasswordHash = newHash
			}
		}
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("login succeeded", "account_id", account.ID.String())

	return account, token, nil
}

// WhoAmI verifies a session token and loads the account it names.
func (s *Service) WhoAmI(ctx context.Context, token string) (*Account, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Account deleted after the token was issued.
			return nil, oops.Code("NOT_FOUND").
				With("account_id", id.String()).
				Errorf("account no longer exists")
		}
		return nil, oops.Code("STORE_FAILED").
			With("operation", "find account by id").
			Wrap(err)
	}
	return account, nil
}

// Logout verifies the token and nothing else. Tokens are not revocable;
// the call is a signal for the client to discard its copy.
func (s *Service) Logout(_ context.Context, token string) error {
	if _, err := s.tokens.Verify(token); err != nil {
		return err
	}
	return nil
}

// RenameHandle changes an account's handle. This is the only mutation
// path for handles after registration.
func (s *Service) RenameHandle(ctx context.Context, id ulid.ULID, handle string) (*Account, error) {
	if err := ValidateHandle(handle); err != nil {
		return nil, err
	}

	account, err := s.accounts.Update(ctx, id, AccountUpdate{Handle: &handle})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, oops.Code("NOT_FOUND").
				With("account_id", id.String()).
				Errorf("account not found")
		case errors.Is(err, ErrConflict):
			return nil, oops.Code("CONFLICT").
				With("handle", handle).
				Errorf("handle already taken")
		default:
			return nil, oops.Code("STORE_FAILED").
				With("operation", "update account").
				Wrap(err)
		}
	}
	return account, nil
}
