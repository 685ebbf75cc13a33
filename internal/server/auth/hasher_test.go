package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/quizdeck/internal/common"
)

var testParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestArgon2idHasher_Hash(t *testing.T) {
	hasher := NewArgon2idHasherWithParams(testParams)

	t.Run("produces PHC string", func(t *testing.T) {
		hash, err := hasher.Hash("pw123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))
		assert.NotContains(t, hash, "pw123")
	})

	t.Run("same password, different salt", func(t *testing.T) {
		h1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		h2, err := hasher.Hash("samepassword")
		require.NoError(t, err)

		assert.NotEqual(t, h1, h2)
		assert.True(t, hasher.Verify("samepassword", h1))
		assert.True(t, hasher.Verify("samepassword", h2))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.ErrorIs(t, err, common.ErrorValidation)
	})
}

func TestArgon2idHasher_Verify(t *testing.T) {
	hasher := NewArgon2idHasherWithParams(testParams)

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "match", password: "correct horse", hash: hash, want: true},
		{name: "mismatch", password: "battery staple", hash: hash},
		{name: "empty hash", password: "x", hash: ""},
		{name: "garbage", password: "x", hash: "not-a-valid-hash"},
		{name: "argon2i", password: "x", hash: "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "bad version", password: "x", hash: "$argon2id$vXX$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "bad params", password: "x", hash: "$argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "zero threads", password: "x", hash: "$argon2id$v=19$m=1024,t=1,p=0$c2FsdA$aGFzaA"},
		{name: "huge memory", password: "x", hash: "$argon2id$v=19$m=4294967295,t=1,p=4$c2FsdA$aGFzaA"},
		{name: "bad salt", password: "x", hash: "$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA"},
		{name: "bad key", password: "x", hash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$!!!"},
		{name: "truncated", password: "x", hash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA"},
		{name: "malformed bcrypt", password: "x", hash: "$2b$10$short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasher.Verify(tt.password, tt.hash))
		})
	}
}

func TestArgon2idHasher_LegacyBcrypt(t *testing.T) {
	hasher := NewArgon2idHasherWithParams(testParams)

	legacy, err := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, hasher.Verify("pw123", string(legacy)))
	assert.False(t, hasher.Verify("wrongpw", string(legacy)))
	assert.True(t, hasher.NeedsUpgrade(string(legacy)))
}

func TestArgon2idHasher_NeedsUpgrade(t *testing.T) {
	hasher := NewArgon2idHasherWithParams(testParams)

	current, err := hasher.Hash("pw")
	require.NoError(t, err)
	assert.False(t, hasher.NeedsUpgrade(current))

	weaker := NewArgon2idHasherWithParams(Argon2Params{Time: 1, Memory: 4 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32})
	old, err := weaker.Hash("pw")
	require.NoError(t, err)
	assert.True(t, hasher.NeedsUpgrade(old))
	assert.True(t, hasher.Verify("pw", old), "hashes with other parameters still verify")

	assert.True(t, hasher.NeedsUpgrade("garbage"))
}

func TestNewArgon2idHasher_Defaults(t *testing.T) {
	hash, err := NewArgon2idHasher().Hash("pw123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
}
