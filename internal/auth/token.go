// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the lifetime of issued session tokens. Tokens are
// never revoked server-side before expiry; logout is client-side discard.
const DefaultTokenTTL = 7 * 24 * time.Hour

const tokenIssuer = "harmony"

// ErrInvalidToken is returned for any malformed, tampered, or expired
// token. Verification is all-or-nothing: the caller learns nothing about
// which check failed.
var ErrInvalidToken = oops.Code("UNAUTHENTICATED").Errorf("invalid or expired token")

// tokenClaims is the JWT payload: the account ID plus the registered
// issued-at/expiry claims.
type tokenClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies expiring session tokens bound to an
// account ID. The signing secret is injected at construction and is
// read-only for the lifetime of the process.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // test seam
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl selects DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token secret cannot be empty")
	}
	if ttl < 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token ttl cannot be negative")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue mints a signed token for the account with issued-at now and
// expiry now+ttl.
func (t *TokenIssuer) Issue(accountID ulid.ULID) (string, error) {
	now := t.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns the embedded
// account ID. Every failure mode collapses into ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (ulid.ULID, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, oops.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return ulid.ULID{}, ErrInvalidToken
	}

	id, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, ErrInvalidToken
	}
	return id, nil
}
