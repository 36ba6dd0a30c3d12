// Package keyfile implements the Web3 Secret Storage v3 encrypted keyfile:
// its canonical JSON serialization and its create/decrypt/shake/update
// lifecycle, per spec §3 and §4.3.
//
// Grounded on philhofer-seth/keyfile.go (KDF dispatch, MAC check, AES
// decipher), generalized from a decode-only helper into the full
// lifecycle and to the exact v3 field names this spec pins.
package keyfile

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// Version is the only Web3 Secret Storage version this service produces
// or accepts.
const Version = 3

// KeyFile is the on-disk custody record for one private key.
type KeyFile struct {
	UUID        uuid.UUID
	Address     primitives.Address
	HasAddress  bool // false until the address is re-derived on first unlock (spec §4.3)
	Visible     *bool
	Name        string
	Description string
	Crypto      CryptoVariant
}

// IsVisible returns the effective visibility, defaulting to true when
// Visible is unset (spec §3).
func (k *KeyFile) IsVisible() bool {
	return k.Visible == nil || *k.Visible
}

// ── JSON ──────────────────────────────────────────────────────────────────

type wireFile struct {
	Version     int             `json:"version"`
	ID          string          `json:"id"`
	Address     string          `json:"address,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Visible     *bool           `json:"visible,omitempty"`
	Crypto      json.RawMessage `json:"crypto"`
}

// MarshalJSON renders the canonical v3 form described in spec §4.3.
func (k *KeyFile) MarshalJSON() ([]byte, error) {
	cryptoJSON, err := k.Crypto.marshalJSON()
	if err != nil {
		return nil, err
	}
	w := wireFile{
		Version:     Version,
		ID:          k.UUID.String(),
		Name:        k.Name,
		Description: k.Description,
		Visible:     k.Visible,
		Crypto:      cryptoJSON,
	}
	if k.HasAddress {
		w.Address = primitives.EncodeHex(k.Address[:])
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the canonical v3 form, tolerating an absent address
// field (populated later by Decrypt) and rejecting any other version with
// UnsupportedVersion.
func (k *KeyFile) UnmarshalJSON(data []byte) error {
	var w wireFile
	if err := json.Unmarshal(data, &w); err != nil {
		return apperr.Wrap(apperr.InvalidDataFormat, "keyfile json", err)
	}
	if w.Version != Version {
		return apperr.Newf(apperr.UnsupportedVersion, "unsupported keyfile version %d", w.Version)
	}
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return apperr.Wrap(apperr.InvalidDataFormat, "keyfile id", err)
	}
	crypto, err := unmarshalCrypto(w.Crypto)
	if err != nil {
		return err
	}

	*k = KeyFile{
		UUID:        id,
		Name:        w.Name,
		Description: w.Description,
		Visible:     w.Visible,
		Crypto:      crypto,
	}
	if w.Address != "" {
		addr, err := primitives.HexToAddress(w.Address)
		if err != nil {
			return apperr.Wrap(apperr.InvalidDataFormat, "keyfile address", err)
		}
		k.Address = addr
		k.HasAddress = true
	}
	return nil
}

// Equal implements the uuid-based equality from spec §3.
func (k *KeyFile) Equal(other *KeyFile) bool {
	return bytes.Equal(k.UUID[:], other.UUID[:])
}

// Less implements the uuid-lexical ordering invariant used when listing
// (spec §3, "ordering is lexical on uuid").
func Less(a, b *KeyFile) bool {
	return a.UUID.String() < b.UUID.String()
}
