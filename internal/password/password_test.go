package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GeonSoon1/moonshot-myself/internal/password"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := password.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := password.Compare("correct horse battery staple", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = password.Compare("wrong password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := password.Hash("same input")
	require.NoError(t, err)
	b, err := password.Hash("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCompareRejectsMangledHash(t *testing.T) {
	for _, encoded := range []string{"", "plaintext", "$bcrypt$whatever", "$argon2id$v=19$m=bad$x$y"} {
		_, err := password.Compare("anything", encoded)
		require.Error(t, err)
	}
}
