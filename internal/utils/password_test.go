package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("Abcdef1!", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("Abcdef1!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "Abcdef1!")
	assert.True(t, VerifyPassword(a, "Abcdef1!"))
	assert.True(t, VerifyPassword(b, "Abcdef1!"))
}

func TestVerifyPasswordMismatch(t *testing.T) {
	h, err := HashPassword("Abcdef1!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, VerifyPassword(h, "abcdef1!"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Abcdef1!"))
}

func TestHashPasswordFallsBackOnBadCost(t *testing.T) {
	h, err := HashPassword("Abcdef1!", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
