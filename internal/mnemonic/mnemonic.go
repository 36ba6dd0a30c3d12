// Package mnemonic implements BIP39 entropy/sentence mapping and BIP32
// hierarchical key derivation, per spec §3 (Mnemonic, HDPath) and §4.4.
//
// Grounded on the pack's Ethereum HD wallets: Jasonyou1995-simple-eth-hd-wallet
// and italoag-bloco-wallet-generator both pair tyler-smith/go-bip39 with a
// BIP32 library; this package uses tyler-smith/go-bip32 for the extended
// key / child derivation step, matching italoag-bloco-wallet-generator's
// go.mod, and implements the seed-stretching and path parsing directly
// since the spec pins their exact byte-level construction.
package mnemonic

import (
	"crypto/sha512"
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// ValidWordCounts enumerates the sentence lengths spec §3 allows.
var ValidWordCounts = map[int]bool{12: true, 15: true, 18: true, 21: true, 24: true}

// entropyBitsForWords returns ENT given the word count N, per spec §3:
// ENT = N*11 - N*11/33.
func entropyBitsForWords(n int) int {
	return n*11 - n*11/33
}

// GenerateEntropy draws fresh entropy for a mnemonic of the given word
// count from the OS CSPRNG.
func GenerateEntropy(words int) ([]byte, error) {
	if !ValidWordCounts[words] {
		return nil, apperr.Newf(apperr.MnemonicError, "unsupported word count %d", words)
	}
	ent, err := bip39.NewEntropy(entropyBitsForWords(words))
	if err != nil {
		return nil, apperr.Wrap(apperr.MnemonicError, "entropy generation", err)
	}
	return ent, nil
}

// EntropyToMnemonic maps entropy bytes to a space-joined English sentence,
// appending the sha256-derived checksum bits (spec §4.4).
func EntropyToMnemonic(entropy []byte) (string, error) {
	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", apperr.Wrap(apperr.MnemonicError, "entropy to mnemonic", err)
	}
	return m, nil
}

// MnemonicToEntropy reverses EntropyToMnemonic, failing MnemonicError if
// the checksum doesn't match or a word isn't in the list.
func MnemonicToEntropy(sentence string) ([]byte, error) {
	ent, err := bip39.EntropyFromMnemonic(sentence)
	if err != nil {
		return nil, apperr.Wrap(apperr.MnemonicError, "mnemonic checksum/wordlist", err)
	}
	return ent, nil
}

// Generate draws fresh entropy and returns the resulting sentence in one
// call, for signer_generateMnemonic.
func Generate(words int) (string, error) {
	ent, err := GenerateEntropy(words)
	if err != nil {
		return "", err
	}
	return EntropyToMnemonic(ent)
}

// SeedFromMnemonic stretches a sentence and optional passphrase into a
// 64-byte seed via PBKDF2-HMAC-SHA512, 2048 rounds, salt
// "mnemonic"+passphrase (spec §4.4) — implemented directly rather than
// through bip39.NewSeed so the exact construction is pinned regardless of
// upstream library changes.
func SeedFromMnemonic(sentence, passphrase string) []byte {
	salt := "mnemonic" + passphrase
	return pbkdf2.Key([]byte(sentence), []byte(salt), 2048, 64, sha512.New)
}

// ── HD path ───────────────────────────────────────────────────────────────

const hardenedBit = uint32(1) << 31

// ChildNumber is one path segment: an index, optionally hardened (top bit
// set), per spec §3 (HDPath).
type ChildNumber struct {
	Index    uint32
	Hardened bool
}

// Raw returns the BIP32 child index including the hardened offset.
func (c ChildNumber) Raw() uint32 {
	if c.Hardened {
		return c.Index + hardenedBit
	}
	return c.Index
}

// HDPath is an ordered list of child numbers, string form "m/a'/b/c'/...".
type HDPath []ChildNumber

// ParsePath parses "m/44'/60'/0'/0/0"-shaped strings. A leading "m/" is
// required; "'" marks a hardened segment. Empty segments or non-numeric
// indices fail with a descriptive MnemonicError (spec §4.4).
func ParsePath(path string) (HDPath, error) {
	if !strings.HasPrefix(path, "m/") && path != "m" {
		return nil, apperr.Newf(apperr.MnemonicError, "hd path %q must start with \"m/\"", path)
	}
	if path == "m" {
		return HDPath{}, nil
	}
	rest := strings.TrimPrefix(path, "m/")
	segments := strings.Split(rest, "/")
	out := make(HDPath, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, apperr.Newf(apperr.MnemonicError, "hd path %q has an empty segment", path)
		}
		hardened := strings.HasSuffix(seg, "'")
		numStr := strings.TrimSuffix(seg, "'")
		idx, err := strconv.ParseUint(numStr, 10, 32)
		if err != nil {
			return nil, apperr.Newf(apperr.MnemonicError, "hd path %q: non-numeric index %q", path, seg)
		}
		if idx >= uint64(hardenedBit) {
			return nil, apperr.Newf(apperr.MnemonicError, "hd path %q: index %d out of range", path, idx)
		}
		out = append(out, ChildNumber{Index: uint32(idx), Hardened: hardened})
	}
	return out, nil
}

// String renders the path back to "m/a'/b/c'/..." form.
func (p HDPath) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, c := range p {
		sb.WriteString("/")
		sb.WriteString(strconv.FormatUint(uint64(c.Index), 10))
		if c.Hardened {
			sb.WriteString("'")
		}
	}
	return sb.String()
}

// ToBytes renders the hardware-wallet byte form used by the HID protocol
// (supplemented from original_source/src/mnemonic/hd_path.rs): a one-byte
// segment count followed by big-endian u32 indices, with the hardened
// offset folded into each index (spec §4.4, "Path to byte form").
func (p HDPath) ToBytes() ([]byte, error) {
	if len(p) > 255 {
		return nil, apperr.Newf(apperr.MnemonicError, "hd path has %d segments, max 255", len(p))
	}
	out := make([]byte, 1, 1+4*len(p))
	out[0] = byte(len(p))
	for _, c := range p {
		raw := c.Raw()
		out = append(out, byte(raw>>24), byte(raw>>16), byte(raw>>8), byte(raw))
	}
	return out, nil
}

// DerivePath walks seed through BIP32 child derivation along path,
// returning the leaf private key (spec §4.4 "BIP32 derivation").
func DerivePath(seed []byte, path HDPath) (primitives.PrivateKey, error) {
	var zero primitives.PrivateKey

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return zero, apperr.Wrap(apperr.MnemonicError, "bip32 master key", err)
	}

	for _, c := range path {
		key, err = key.NewChildKey(c.Raw())
		if err != nil {
			return zero, apperr.Wrap(apperr.MnemonicError, fmt.Sprintf("bip32 derive segment %+v", c), err)
		}
	}

	var out primitives.PrivateKey
	raw := key.Key
	switch len(raw) {
	case 33:
		// go-bip32 stores private scalars with a leading 0x00 byte to
		// match the serialized extended-key format.
		raw = raw[1:]
	case 32:
		// already bare
	default:
		return zero, apperr.Newf(apperr.MnemonicError, "derived key has unexpected length %d", len(raw))
	}
	copy(out[:], raw)
	if !out.Valid() {
		return zero, apperr.New(apperr.MnemonicError, "derived scalar is zero or out of range")
	}
	return out, nil
}

// DeriveAddress is a convenience wrapper returning the address for a
// mnemonic sentence + BIP39 passphrase + HD path in one call, as used by
// signer_importMnemonic.
func DeriveAddress(sentence, bip39Passphrase string, path HDPath) (primitives.Address, primitives.PrivateKey, error) {
	seed := SeedFromMnemonic(sentence, bip39Passphrase)
	priv, err := DerivePath(seed, path)
	if err != nil {
		return primitives.Address{}, primitives.PrivateKey{}, err
	}
	addr, err := primitives.AddressFromPrivateKey(priv)
	if err != nil {
		return primitives.Address{}, primitives.PrivateKey{}, err
	}
	return addr, priv, nil
}
