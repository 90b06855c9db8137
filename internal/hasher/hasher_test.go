package hasher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	digest, err := h.Hash("Str0ng&Secret")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng&Secret", digest)

	assert.NoError(t, h.Compare("Str0ng&Secret", digest))
	assert.ErrorIs(t, h.Compare("wrong", digest), ErrIncorrectPassword)
	assert.ErrorIs(t, h.Compare("Str0ng&Secret", "not-a-bcrypt-hash"), ErrIncorrectPassword)
}
