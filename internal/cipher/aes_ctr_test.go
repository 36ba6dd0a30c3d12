package cipher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/cipher"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

func TestApplyIsItsOwnInverse(t *testing.T) {
	var dk [32]byte
	copy(dk[:], []byte("0123456789abcdef0123456789abcdef"))
	var iv primitives.IV
	copy(iv[:], []byte("fedcba9876543210"))

	plain := []byte("a 32-byte secp256k1 private key")
	ct, err := cipher.Apply(dk, iv, plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, ct)

	back, err := cipher.Apply(dk, iv, ct)
	require.NoError(t, err)
	assert.Equal(t, plain, back)
}

func TestApplyDifferentIVsDifferentCiphertext(t *testing.T) {
	var dk [32]byte
	copy(dk[:], []byte("0123456789abcdef0123456789abcdef"))
	plain := []byte("same plaintext, different ivs..")

	var iv1, iv2 primitives.IV
	copy(iv1[:], []byte("1111111111111111"))
	copy(iv2[:], []byte("2222222222222222"))

	ct1, err := cipher.Apply(dk, iv1, plain)
	require.NoError(t, err)
	ct2, err := cipher.Apply(dk, iv2, plain)
	require.NoError(t, err)
	assert.NotEqual(t, ct1, ct2)
}
