package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("correct-password")
	require.NoError(t, err)
	second, err := hasher.Hash("correct-password")
	require.NoError(t, err)

	assert.NotEqual(t, "correct-password", first)
	assert.NotEqual(t, first, second, "hashes must be salted")
	assert.True(t, hasher.Verify("correct-password", first))
	assert.True(t, hasher.Verify("correct-password", second))
	assert.False(t, hasher.Verify("wrong", first))
	assert.False(t, hasher.Verify("correct-password", "not-a-hash"))
}

func TestNewPasswordHasherClampsCost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
}

func TestHashPasswordEmbedsCost(t *testing.T) {
	t.Parallel()

	hashed, err := HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.True(t, VerifyPassword("pw", hashed))
}
