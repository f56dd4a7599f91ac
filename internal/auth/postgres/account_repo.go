// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

// Package postgres implements the auth repositories over PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/bandmate/harmony/internal/auth"
)

// Querier is the subset of pgxpool.Pool the repository needs. It is
// satisfied by *pgxpool.Pool and by pgxmock in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, handle, email, password_hash, given_name, family_name, created_at, updated_at`

// Insert stores a new account. Unique violations on the email or handle
// constraints map to auth.ErrEmailTaken / auth.ErrHandleTaken so the
// service can distinguish a terminal conflict from a retryable one.
func (r *AccountRepository) Insert(ctx context.Context, account *auth.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (
			id, handle, email, password_hash,
			given_name, family_name, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		account.ID.String(),
		account.Handle,
		account.Email,
		account.PasswordHash,
		account.GivenName,
		account.FamilyName,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return oops.Code("CONFLICT").
				With("handle", account.Handle).
				Wrap(conflict)
		}
		return oops.Code("ACCOUNT_INSERT_FAILED").
			With("operation", "insert account").
			With("handle", account.Handle).
			Wrap(err)
	}
	return nil
}

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// FindByEmail retrieves an account by exact email match. Emails are
// stored and compared as given; no normalization is applied.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return account, nil
}

// FindByHandle retrieves an account by handle.
func (r *AccountRepository) FindByHandle(ctx context.Context, handle string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE handle = $1
	`, handle)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").
			With("handle", handle).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_HANDLE_FAILED").
			With("operation", "get account by handle").
			With("handle", handle).
			Wrap(err)
	}
	return account, nil
}

// Update applies the non-nil fields of the update and refreshes
// updated_at in the same statement.
func (r *AccountRepository) Update(ctx context.Context, id ulid.ULID, update auth.AccountUpdate) (*auth.Account, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	appendSet := func(column string, value any) {
		setParts = append(setParts, column+" = $"+strconv.Itoa(idx))
		args = append(args, value)
		idx++
	}

	if update.Handle != nil {
		appendSet("handle", *update.Handle)
	}
	if update.PasswordHash != nil {
		appendSet("password_hash", *update.PasswordHash)
	}
	if update.GivenName != nil {
		appendSet("given_name", *update.GivenName)
	}
	if update.FamilyName != nil {
		appendSet("family_name", *update.FamilyName)
	}
	if len(setParts) == 0 {
		return nil, oops.Code("VALIDATION_FAILED").Errorf("no fields to update")
	}

	appendSet("updated_at", time.Now())
	args = append(args, id.String())

	row := r.db.QueryRow(ctx, `
		UPDATE accounts
		SET `+strings.Join(setParts, ", ")+`
		WHERE id = $`+strconv.Itoa(idx)+`
		RETURNING `+accountColumns,
		args...,
	)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return nil, oops.Code("CONFLICT").Wrap(conflict)
		}
		return nil, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// conflictError maps a PostgreSQL unique violation to the matching
// sentinel, or returns nil for any other error.
func conflictError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return auth.ErrEmailTaken
	case strings.Contains(pgErr.ConstraintName, "handle"):
		return auth.ErrHandleTaken
	default:
		return auth.ErrConflict
	}
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		account auth.Account
		idStr   string
	)
	err := row.Scan(
		&idStr,
		&account.Handle,
		&account.Email,
		&account.PasswordHash,
		&account.GivenName,
		&account.FamilyName,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").
			With("id", idStr).
			Wrap(err)
	}
	return &account, nil
}

