// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicohaager/lectoria/pkg/errutil"
)

func TestArgon2idHasher_HashAndVerify(t *testing.T) {
	hasher := NewArgon2idHasher()

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be PHC-encoded: %s", hash)

	valid, err := hasher.Verify("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = hasher.Verify("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestArgon2idHasher_HashesAreSalted(t *testing.T) {
	hasher := NewArgon2idHasher()

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
}

func TestArgon2idHasher_Hash_Rejections(t *testing.T) {
	hasher := NewArgon2idHasher()

	t.Run("empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, ErrEmptyPassword)
	})

	t.Run("oversized password", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("a", MaxPasswordBytes+1))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("password at the limit is accepted", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("a", MaxPasswordBytes))
		assert.NoError(t, err)
	})
}

func TestArgon2idHasher_Verify_InvalidHash(t *testing.T) {
	hasher := NewArgon2idHasher()

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty hash", hash: ""},
		{name: "not PHC format", hash: "plainhash"},
		{name: "wrong algorithm", hash: "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "bad salt encoding", hash: "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{name: "bad params", hash: "$argon2id$v=19$nonsense$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		})
	}
}

func TestArgon2idHasher_Verify_OversizedPassword(t *testing.T) {
	hasher := NewArgon2idHasher()

	hash, err := hasher.Hash("a valid password")
	require.NoError(t, err)

	_, err = hasher.Verify(strings.Repeat("a", MaxPasswordBytes+1), hash)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestArgon2idHasher_NeedsRehash(t *testing.T) {
	hasher := NewArgon2idHasher()

	t.Run("current parameters do not need rehash", func(t *testing.T) {
		hash, err := hasher.Hash("some password")
		require.NoError(t, err)
		assert.False(t, hasher.NeedsRehash(hash))
	})

	t.Run("non-argon2id hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$2a$10$legacybcrypthash"))
	})

	t.Run("weaker memory parameter needs rehash", func(t *testing.T) {
		weak := "$argon2id$v=19$m=32768,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"
		assert.True(t, hasher.NeedsRehash(weak))
	})

	t.Run("unparseable hash needs rehash", func(t *testing.T) {
		assert.True(t, hasher.NeedsRehash("$argon2id$garbage"))
	})
}
