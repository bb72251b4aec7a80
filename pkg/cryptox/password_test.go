package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrPasswordMismatch)
}

func TestHashesAreSalted(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsGarbage(t *testing.T) {
	t.Parallel()

	require.Error(t, VerifyPassword("anything", "not a hash"))
	require.Error(t, VerifyPassword("anything", "$bcrypt$v=19$m=1,t=1,p=1$AA$BB"))
}

func TestFingerprintIsDeterministic(t *testing.T) {
	t.Parallel()

	a := Fingerprint("some-token")
	b := Fingerprint("some-token")
	c := Fingerprint("other-token")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 43) // base64url of 32 bytes, no padding
}
