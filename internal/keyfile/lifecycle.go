package keyfile

import (
	"crypto/subtle"
	"io"

	"github.com/google/uuid"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/cipher"
	"github.com/gipsh/emerald-signer/internal/kdf"
	"github.com/gipsh/emerald-signer/internal/primitives"
	"github.com/gipsh/emerald-signer/internal/randsrc"
)

// CreateParams configures New.
type CreateParams struct {
	Name        string
	Description string
	Passphrase  []byte
	Level       kdf.Level
	UsePbkdf2   bool // portable fallback, spec §4.2 / §9
}

// New generates a fresh private key from the CSPRNG, encrypts it under
// Passphrase, and returns the resulting KeyFile together with the raw
// private key (the caller is responsible for zeroing it once done).
func New(p CreateParams) (*KeyFile, primitives.PrivateKey, error) {
	var priv primitives.PrivateKey
	for {
		if _, err := io.ReadFull(randsrc.Reader, priv[:]); err != nil {
			return nil, priv, apperr.Wrap(apperr.StorageError, "csprng read", err)
		}
		if priv.Valid() {
			break
		}
	}

	kf, err := encrypt(priv, p)
	if err != nil {
		return nil, priv, err
	}

	// Round-trip to validate and to populate the address (spec §4.3 "Create").
	addr, _, err := Decrypt(kf, p.Passphrase)
	if err != nil {
		return nil, priv, apperr.Wrap(apperr.StorageError, "create round-trip validation failed", err)
	}
	kf.Address = addr
	kf.HasAddress = true

	return kf, priv, nil
}

// NewFromPrivateKey encrypts an already-known private key under
// Passphrase, for import flows (signer_importMnemonic) rather than fresh
// generation. Mirrors New's round-trip validation step.
func NewFromPrivateKey(priv primitives.PrivateKey, p CreateParams) (*KeyFile, error) {
	if !priv.Valid() {
		return nil, apperr.New(apperr.EcdsaCrypto, "private key is zero or out of range")
	}
	kf, err := encrypt(priv, p)
	if err != nil {
		return nil, err
	}
	addr, _, err := Decrypt(kf, p.Passphrase)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "import round-trip validation failed", err)
	}
	kf.Address = addr
	kf.HasAddress = true
	return kf, nil
}

func encrypt(priv primitives.PrivateKey, p CreateParams) (*KeyFile, error) {
	var iv primitives.IV
	var salt primitives.Salt
	if _, err := io.ReadFull(randsrc.Reader, iv[:]); err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "csprng iv", err)
	}
	if _, err := io.ReadFull(randsrc.Reader, salt[:]); err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "csprng salt", err)
	}

	var kdfParams kdf.Params
	var err error
	if p.UsePbkdf2 {
		kdfParams, err = kdf.Pbkdf2ParamsForLevel(p.Level)
	} else {
		kdfParams, err = kdf.ScryptParamsForLevel(p.Level)
	}
	if err != nil {
		return nil, err
	}

	dk, err := kdfParams.Derive(p.Passphrase, salt)
	if err != nil {
		return nil, err
	}

	ct, err := cipher.Apply(dk, iv, priv[:])
	if err != nil {
		return nil, err
	}
	var cipherText [32]byte
	copy(cipherText[:], ct)

	mac := computeMAC(dk, cipherText[:])

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "uuid generation", err)
	}

	return &KeyFile{
		UUID:        id,
		Name:        p.Name,
		Description: p.Description,
		Crypto: Core{
			Cipher:     cipher.Name,
			IV:         iv,
			CipherText: cipherText,
			KDF:        kdfParams,
			Salt:       salt,
			MAC:        mac,
		},
	}, nil
}

func computeMAC(derivedKey [32]byte, cipherText []byte) primitives.Hash {
	return primitives.Keccak256(derivedKey[16:32], cipherText)
}

// Decrypt unlocks kf with passphrase, returning the recovered address and
// private key. The MAC is checked before any cipher work runs (spec §8,
// testable property 3): a wrong passphrase always fails with
// FailedMacValidation, never with a cipher or address-mismatch error.
func Decrypt(kf *KeyFile, passphrase []byte) (primitives.Address, primitives.PrivateKey, error) {
	var zero primitives.PrivateKey
	core, ok := kf.Crypto.(Core)
	if !ok {
		return primitives.Address{}, zero, apperr.New(apperr.EcdsaCrypto, "keyfile has no locally-held private key (hardware-backed)")
	}

	dk, err := core.KDF.Derive(passphrase, core.Salt)
	if err != nil {
		return primitives.Address{}, zero, err
	}

	wantMAC := computeMAC(dk, core.CipherText[:])
	if subtle.ConstantTimeCompare(wantMAC[:], core.MAC[:]) != 1 {
		return primitives.Address{}, zero, apperr.New(apperr.FailedMacValidation, "invalid passphrase")
	}

	plain, err := cipher.Apply(dk, core.IV, core.CipherText[:])
	if err != nil {
		return primitives.Address{}, zero, err
	}
	var priv primitives.PrivateKey
	copy(priv[:], plain)

	addr, err := primitives.AddressFromPrivateKey(priv)
	if err != nil {
		priv.Zero()
		return primitives.Address{}, zero, err
	}

	if kf.HasAddress && addr != kf.Address {
		priv.Zero()
		return primitives.Address{}, zero, apperr.Newf(apperr.InvalidDataFormat,
			"derived address %s does not match stored address %s", addr.Hex(), kf.Address.Hex())
	}
	if !kf.HasAddress {
		kf.Address = addr
		kf.HasAddress = true
	}

	return addr, priv, nil
}

// DecryptAddress unlocks kf and returns only the address, zeroing the
// recovered private key before returning (spec §4.3 "Decrypt address").
func DecryptAddress(kf *KeyFile, passphrase []byte) (primitives.Address, error) {
	addr, priv, err := Decrypt(kf, passphrase)
	priv.Zero()
	return addr, err
}

// Shake re-encrypts kf under a new passphrase with a fresh salt and IV,
// keeping the same UUID, KDF kind, address, name, and description (spec
// §4.3 "Re-encrypt (shake)"). The existing KDF kind is always kept, so
// usePbkdf2 is not consulted. level is only a fallback for a keyfile whose
// existing depth doesn't match any known level; the existing depth
// otherwise wins.
func Shake(kf *KeyFile, oldPassphrase, newPassphrase []byte, level kdf.Level, usePbkdf2 bool) (*KeyFile, error) {
	_, priv, err := Decrypt(kf, oldPassphrase)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	core, ok := kf.Crypto.(Core)
	if !ok {
		return nil, apperr.New(apperr.EcdsaCrypto, "cannot shake a hardware-backed keyfile")
	}

	// Preserve the keyfile's own KDF kind and depth rather than the
	// caller-supplied defaults: signer_shakeAccount has no way to name a
	// kind/level, so a server configured for scrypt-normal must not
	// silently downgrade a pbkdf2-high keyfile on re-encryption.
	existingUsePbkdf2 := core.KDF.Kind() == kdf.KindPbkdf2
	existingLevel := level
	if lvl, ok := kdf.LevelOf(core.KDF); ok {
		existingLevel = lvl
	}

	reencrypted, err := encrypt(priv, CreateParams{
		Name:        kf.Name,
		Description: kf.Description,
		Passphrase:  newPassphrase,
		Level:       existingLevel,
		UsePbkdf2:   existingUsePbkdf2,
	})
	if err != nil {
		return nil, err
	}

	reencrypted.UUID = kf.UUID
	reencrypted.Address = kf.Address
	reencrypted.HasAddress = kf.HasAddress
	reencrypted.Visible = kf.Visible
	return reencrypted, nil
}

// Update mutates only name/description/visible; UUID, address, and crypto
// are untouched (spec §4.3 "Update").
func Update(kf *KeyFile, name, description *string, visible *bool) {
	if name != nil {
		kf.Name = *name
	}
	if description != nil {
		kf.Description = *description
	}
	if visible != nil {
		kf.Visible = visible
	}
}
