// Package cipher implements the one cipher the keyfile format supports:
// AES-128-CTR, per spec §4.1. Grounded on philhofer-seth/keyfile.go's
// aes128ctrDecipher, generalized into a single Apply call that serves for
// both encryption and decryption (CTR mode is its own inverse).
package cipher

import (
	stdaes "crypto/aes"
	stdcipher "crypto/cipher"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// Name is the on-disk cipher identifier.
const Name = "aes-128-ctr"

// KeySize is the AES key length used — the first 16 bytes of the 32-byte
// derived key. The remaining 16 bytes are never passed to the cipher; they
// are used only in the MAC (see keyfile package).
const KeySize = 16

// Apply runs AES-128-CTR over in using the low 16 bytes of derivedKey and
// iv, returning a new byte slice (the input is not mutated). CTR being its
// own inverse, the same call both encrypts and decrypts.
func Apply(derivedKey [32]byte, iv primitives.IV, in []byte) ([]byte, error) {
	block, err := stdaes.NewCipher(derivedKey[:KeySize])
	if err != nil {
		return nil, apperr.Wrap(apperr.UnsupportedCipher, "aes-128-ctr key setup", err)
	}
	stream := stdcipher.NewCTR(block, iv[:])
	out := make([]byte, len(in))
	stream.XORKeyStream(out, in)
	return out, nil
}
