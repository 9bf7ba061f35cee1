package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "wrong horse"), ErrMismatch)
}

func TestHashRejectsLength(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordShort)

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordLong)
}

func TestCompareDummyDoesNotPanic(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	h.CompareDummy("anything")
	h.CompareDummy("anything else")
}
