// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Bandmate Harmony Contributors

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandmate/harmony/pkg/errutil"
)

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := NewArgon2idHasher()

	t.Run("produces PHC-format hash", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash: %s", hash)
	})

	t.Run("same password yields different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("hunter2")
		require.NoError(t, err)
		hash2, err := hasher.Hash("hunter2")
		require.NoError(t, err)

		assert.NotEqual(t, hash1, hash2, "salts must be random per call")
		assert.True(t, hasher.Verify("hunter2", hash1))
		assert.True(t, hasher.Verify("hunter2", hash2))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "VALIDATION_FAILED")
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := NewArgon2idHasher()

	hash, err := hasher.Hash("swordfish")
	require.NoError(t, err)

	t.Run("accepts correct password", func(t *testing.T) {
		assert.True(t, hasher.Verify("swordfish", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		assert.False(t, hasher.Verify("sword fish", hash))
		assert.False(t, hasher.Verify("", hash))
	})

	t.Run("malformed hashes verify false without panicking", func(t *testing.T) {
		malformed := []string{
			"",
			"not a hash",
			"$argon2id$",
			"$argon2id$v=19$m=65536,t=1,p=4$salt",
			"$argon2id$v=19$m=65536,t=1,p=4$!!!$!!!",
			"$bcrypt$whatever",
			"$argon2id$v=19$m=junk,t=1,p=4$c2FsdA$aGFzaA",
		}
		for _, h := range malformed {
			assert.False(t, hasher.Verify("swordfish", h), "hash: %q", h)
		}
	})
}

func TestArgon2idHasher_NeedsRehash(t *testing.T) {
	hasher := NewArgon2idHasher()

	t.Run("current hash does not need rehash", func(t *testing.T) {
		hash, err := hasher.Hash("swordfish")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})

	t.Run("legacy bcrypt hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$2b$10$N9qo8uLOickgx2ZMRZoMye"))
	})

	t.Run("outdated cost parameters need rehash", func(t *testing.T) {
		old := "$argon2id$v=19$m=32768,t=2,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
		assert.True(t, hasher.NeedsRehash(old))
	})
}
