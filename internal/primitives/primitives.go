// Package primitives holds the fixed-width byte types shared by every
// other package in the signer: addresses, private keys, digests, IVs and
// salts, plus the hex codec and keccak-256 wrapper they're built on.
package primitives

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gipsh/emerald-signer/internal/apperr"
)

const (
	AddressLength    = 20
	PrivateKeyLength = 32
	HashLength       = 32
	IVLength         = 16
	SaltLength       = 32
)

// Address is a 20-byte Ethereum-family account address.
type Address [AddressLength]byte

// PrivateKey is a 32-byte secp256k1 private scalar.
type PrivateKey [PrivateKeyLength]byte

// Hash is a 32-byte keccak-256 digest.
type Hash [HashLength]byte

// IV is a 16-byte AES-CTR initialization vector.
type IV [IVLength]byte

// Salt is a 32-byte KDF salt.
type Salt [SaltLength]byte

// ── Address ───────────────────────────────────────────────────────────────

func (a Address) Bytes() []byte { return a[:] }

// Hex renders the address as "0x"-prefixed lowercase hex, per spec.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

func (a Address) IsZero() bool {
	return a == Address{}
}

// HexToAddress parses a 40-hex-character address, with or without a 0x
// prefix, failing with InvalidDataFormat on any other shape.
func HexToAddress(s string) (Address, error) {
	var out Address
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != AddressLength*2 {
		return out, apperr.Newf(apperr.InvalidDataFormat, "address %q: want %d hex chars, got %d", s, AddressLength*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, apperr.Wrap(apperr.InvalidDataFormat, "address hex decode", err)
	}
	copy(out[:], b)
	return out, nil
}

// AddressFromPublicKey computes the Ethereum address for an uncompressed
// public key: the last 20 bytes of keccak256(X||Y), per spec §3.
func AddressFromPublicKey(pub *ecdsa.PublicKey) Address {
	var out Address
	copy(out[:], crypto.PubkeyToAddress(*pub).Bytes())
	return out
}

// AddressFromPrivateKey derives the address by first computing the public
// key on secp256k1, then hashing it.
func AddressFromPrivateKey(pk PrivateKey) (Address, error) {
	ecpriv, err := ToECDSA(pk)
	if err != nil {
		return Address{}, err
	}
	return AddressFromPublicKey(&ecpriv.PublicKey), nil
}

// ── PrivateKey ────────────────────────────────────────────────────────────

func (p PrivateKey) Bytes() []byte { return p[:] }

// Zero overwrites the key material in place. Callers must not retain p
// beyond the request that needed it (spec §5, "Resource policy").
func (p *PrivateKey) Zero() {
	for i := range p {
		p[i] = 0
	}
}

// Valid reports whether p is non-zero and less than the secp256k1 group
// order, per spec §3's PrivateKey invariant.
func (p PrivateKey) Valid() bool {
	if p == (PrivateKey{}) {
		return false
	}
	n := new(big.Int).SetBytes(p[:])
	return n.Cmp(secp256k1N) < 0
}

var secp256k1N = func() *big.Int {
	n, ok := new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	if !ok {
		panic("primitives: bad secp256k1 order constant")
	}
	return n
}()

// ToECDSA converts a raw private key into a go-ethereum/crypto ECDSA key,
// failing with EcdsaCrypto if the scalar is out of range.
func ToECDSA(pk PrivateKey) (*ecdsa.PrivateKey, error) {
	key, err := crypto.ToECDSA(pk[:])
	if err != nil {
		return nil, apperr.Wrap(apperr.EcdsaCrypto, "invalid private key scalar", err)
	}
	return key, nil
}

// FromECDSA extracts the raw 32-byte scalar from a go-ethereum ECDSA key.
func FromECDSA(key *ecdsa.PrivateKey) PrivateKey {
	var out PrivateKey
	copy(out[:], crypto.FromECDSA(key))
	return out
}

// ── Hash / keccak ─────────────────────────────────────────────────────────

// Keccak256 hashes the concatenation of data with keccak-256.
func Keccak256(data ...[]byte) Hash {
	var out Hash
	copy(out[:], crypto.Keccak256(data...))
	return out
}

func (h Hash) Bytes() []byte { return h[:] }
func (h Hash) Hex() string   { return "0x" + hex.EncodeToString(h[:]) }

// ── hex helpers shared by the keyfile/kdf serializers ────────────────────

// DecodeHexFixed decodes s (with or without 0x) into a fixed-length slice,
// failing with InvalidDataFormat on a length mismatch.
func DecodeHexFixed(s string, n int) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "hex decode", err)
	}
	if len(b) != n {
		return nil, apperr.Newf(apperr.InvalidDataFormat, "want %d bytes, got %d", n, len(b))
	}
	return b, nil
}

func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}
