package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hashed, err := h.HashPassword("Passw0rd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hashed, "$2a$"))
	assert.NotContains(t, hashed, "Passw0rd")

	ok, err := h.VerifyPassword("Passw0rd", hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPassword("WrongPass", hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	h := newTestHasher(t)

	ok, err := h.VerifyPassword("Passw0rd", "not-a-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestNewPasswordHasher_RejectsBadCost(t *testing.T) {
	_, err := NewPasswordHasher(2)
	assert.Error(t, err)

	_, err = NewPasswordHasher(40)
	assert.Error(t, err)
}

func TestBurnCompare_DoesNotPanic(t *testing.T) {
	h := newTestHasher(t)
	assert.NotPanics(t, func() { h.BurnCompare("anything") })
}
