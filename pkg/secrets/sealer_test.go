package secrets_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/pkg/secrets"
)

func newSealer(t *testing.T) *secrets.Sealer {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	s, err := secrets.NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSealOpen(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	sealed, err := s.Seal("user-1", "refresh-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "refresh-token")

	plain, err := s.Open("user-1", sealed)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", plain)

	again, err := s.Seal("user-1", "refresh-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per call")
}

func TestOpenWrongSubject(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	sealed, err := s.Seal("user-1", "refresh-token")
	require.NoError(t, err)

	_, err = s.Open("user-2", sealed)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestOpenWrongKey(t *testing.T) {
	t.Parallel()

	sealed, err := newSealer(t).Seal("user-1", "refresh-token")
	require.NoError(t, err)

	_, err = newSealer(t).Open("user-1", sealed)
	require.ErrorIs(t, err, secrets.ErrDecryptionFailed)
}

func TestOpenMalformed(t *testing.T) {
	t.Parallel()
	s := newSealer(t)

	_, err := s.Open("user-1", "!!!")
	require.ErrorIs(t, err, secrets.ErrInvalidCiphertext)

	_, err = s.Open("user-1", "AAAA")
	require.ErrorIs(t, err, secrets.ErrInvalidCiphertext)
}

func TestNewSealerValidation(t *testing.T) {
	t.Parallel()

	_, err := secrets.NewSealer("not-hex")
	require.ErrorIs(t, err, secrets.ErrInvalidKey)

	_, err = secrets.NewSealer(strings.Repeat("ab", 16))
	require.ErrorIs(t, err, secrets.ErrInvalidKey)
}
