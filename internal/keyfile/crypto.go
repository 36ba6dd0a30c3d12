package keyfile

import (
	"encoding/json"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/cipher"
	"github.com/gipsh/emerald-signer/internal/kdf"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// CryptoVariant is the keyfile's "crypto" field. The format is formally a
// sum type (spec §9 Design Notes, "Variant CryptoType") even though only
// Core is ever produced by this service; Hardware is kept open so a
// future HID-backed keyfile can be represented without breaking decode of
// existing files. The concrete hardware_vendor/hd_path shape is this
// service's own invention — the original jade-signer-rs source's
// CryptoType enum has exactly one variant (Core) and carries no wire
// shape for a hardware-backed entry to follow.
type CryptoVariant interface {
	kind() string
	marshalJSON() ([]byte, error)
}

// Core is the only variant this service ever writes: a passphrase-derived
// key protecting an AES-128-CTR-encrypted private key, per spec §3/§4.3.
type Core struct {
	Cipher     string
	IV         primitives.IV
	CipherText [32]byte
	KDF        kdf.Params
	Salt       primitives.Salt
	MAC        primitives.Hash
}

func (Core) kind() string { return "core" }

// Hardware marks a keyfile whose private key is never held locally; signing
// is delegated to an external HID device over the HID manager (out of
// scope here — see spec §1). Decrypt refuses to service it. The field
// shape is not grounded on the original source (see CryptoVariant); it's
// the minimal wire shape needed to open the sum type per spec §9.
type Hardware struct {
	HardwareVendor string
	HDPath         string
}

func (Hardware) kind() string { return "hardware" }

// ── JSON wire format ──────────────────────────────────────────────────────

type cipherParamsJSON struct {
	IV string `json:"iv"`
}

type kdfParamsJSON struct {
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
	// scrypt
	N int `json:"n,omitempty"`
	R int `json:"r,omitempty"`
	P int `json:"p,omitempty"`
	// pbkdf2
	C   int    `json:"c,omitempty"`
	PRF string `json:"prf,omitempty"`
}

type coreJSON struct {
	Cipher       string            `json:"cipher"`
	CipherParams cipherParamsJSON  `json:"cipherparams"`
	CipherText   string            `json:"ciphertext"`
	KDF          string            `json:"kdf"`
	KDFParams    kdfParamsJSON     `json:"kdfparams"`
	MAC          string            `json:"mac"`
}

type hardwareJSON struct {
	Cipher         string `json:"cipher"`
	HardwareVendor string `json:"hardware_vendor"`
	HDPath         string `json:"hd_path"`
}

func (c Core) marshalJSON() ([]byte, error) {
	params := kdfParamsJSON{DKLen: kdf.DKLen, Salt: primitives.EncodeHex(c.Salt[:])}
	switch p := c.KDF.(type) {
	case kdf.Scrypt:
		params.N, params.R, params.P = p.N, p.R, p.P
	case kdf.Pbkdf2:
		params.C, params.PRF = p.C, p.PRF
	default:
		return nil, apperr.Newf(apperr.UnsupportedKdf, "unknown kdf params type %T", c.KDF)
	}
	return json.Marshal(coreJSON{
		Cipher:       c.Cipher,
		CipherParams: cipherParamsJSON{IV: primitives.EncodeHex(c.IV[:])},
		CipherText:   primitives.EncodeHex(c.CipherText[:]),
		KDF:          string(c.KDF.Kind()),
		KDFParams:    params,
		MAC:          primitives.EncodeHex(c.MAC[:]),
	})
}

func (h Hardware) marshalJSON() ([]byte, error) {
	return json.Marshal(hardwareJSON{
		Cipher:         "hardware",
		HardwareVendor: h.HardwareVendor,
		HDPath:         h.HDPath,
	})
}

// unmarshalCrypto decodes the "crypto" object, dispatching on the presence
// of a hardware_vendor field (Core never has one).
func unmarshalCrypto(raw json.RawMessage) (CryptoVariant, error) {
	var probe struct {
		HardwareVendor *string `json:"hardware_vendor"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "crypto object", err)
	}
	if probe.HardwareVendor != nil {
		var hj hardwareJSON
		if err := json.Unmarshal(raw, &hj); err != nil {
			return nil, apperr.Wrap(apperr.InvalidDataFormat, "hardware crypto object", err)
		}
		return Hardware{HardwareVendor: hj.HardwareVendor, HDPath: hj.HDPath}, nil
	}

	var cj coreJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "core crypto object", err)
	}
	if cj.Cipher != cipher.Name {
		return nil, apperr.Newf(apperr.UnsupportedCipher, "unsupported cipher %q", cj.Cipher)
	}
	if cj.KDFParams.DKLen != kdf.DKLen {
		return nil, apperr.Newf(apperr.InvalidDataFormat, "unsupported dklen %d", cj.KDFParams.DKLen)
	}

	iv, err := primitives.DecodeHexFixed(cj.CipherParams.IV, primitives.IVLength)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "cipherparams.iv", err)
	}
	ct, err := primitives.DecodeHexFixed(cj.CipherText, 32)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "ciphertext", err)
	}
	salt, err := primitives.DecodeHexFixed(cj.KDFParams.Salt, primitives.SaltLength)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "kdfparams.salt", err)
	}
	mac, err := primitives.DecodeHexFixed(cj.MAC, 32)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "mac", err)
	}

	kind, err := kdf.ParseKind(cj.KDF)
	if err != nil {
		return nil, err
	}
	var params kdf.Params
	switch kind {
	case kdf.KindScrypt:
		params = kdf.Scrypt{N: cj.KDFParams.N, R: cj.KDFParams.R, P: cj.KDFParams.P}
	case kdf.KindPbkdf2:
		params = kdf.Pbkdf2{C: cj.KDFParams.C, PRF: cj.KDFParams.PRF}
	}

	c := Core{Cipher: cj.Cipher, KDF: params}
	copy(c.IV[:], iv)
	copy(c.CipherText[:], ct)
	copy(c.Salt[:], salt)
	copy(c.MAC[:], mac)
	return c, nil
}
