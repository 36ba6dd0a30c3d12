package keyfile_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/cipher"
	"github.com/gipsh/emerald-signer/internal/kdf"
	"github.com/gipsh/emerald-signer/internal/keyfile"
	"github.com/gipsh/emerald-signer/internal/primitives"
	"github.com/gipsh/emerald-signer/internal/randsrc"
)

// buildCoreKeyfile assembles a Core-backed keyfile by hand, mirroring the
// unexported encrypt() pipeline (salt/iv draw, KDF derive, AES-CTR, MAC)
// but accepting arbitrary kdf.Params instead of a CreateParams.Level
// preset. Needed to exercise scenario fixtures whose kdf parameters (e.g.
// scrypt n=1024) don't correspond to any configured KdfDepthLevel.
func buildCoreKeyfile(t *testing.T, priv primitives.PrivateKey, passphrase []byte, params kdf.Params) *keyfile.KeyFile {
	t.Helper()
	var iv primitives.IV
	var salt primitives.Salt
	_, err := io.ReadFull(randsrc.Reader, iv[:])
	require.NoError(t, err)
	_, err = io.ReadFull(randsrc.Reader, salt[:])
	require.NoError(t, err)

	dk, err := params.Derive(passphrase, salt)
	require.NoError(t, err)

	ct, err := cipher.Apply(dk, iv, priv[:])
	require.NoError(t, err)
	var cipherText [32]byte
	copy(cipherText[:], ct)

	mac := primitives.Keccak256(dk[16:32], cipherText[:])

	return &keyfile.KeyFile{
		Crypto: keyfile.Core{
			Cipher:     cipher.Name,
			IV:         iv,
			CipherText: cipherText,
			KDF:        params,
			Salt:       salt,
			MAC:        mac,
		},
	}
}

// fixturePrivateKey is the private key from the decrypt-scrypt-keyfile
// fixture (spec §8(a)): address 0x0047201aed0b69875b24b614dda0270bcd9f11cc,
// passphrase "1234567890".
func fixturePrivateKey(t *testing.T) primitives.PrivateKey {
	t.Helper()
	b, err := primitives.DecodeHexFixed("fa384e6fe915747cd13faa1022044b0def5e6bec4238bec53166487a5cca569f", 32)
	require.NoError(t, err)
	var pk primitives.PrivateKey
	copy(pk[:], b)
	return pk
}

func TestNewFromPrivateKeyRoundTrip(t *testing.T) {
	priv := fixturePrivateKey(t)

	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Name:       "fixture",
		Passphrase: []byte("1234567890"),
		Level:      kdf.LevelNormal,
	})
	require.NoError(t, err)
	assert.True(t, kf.HasAddress)

	addr, decrypted, err := keyfile.Decrypt(kf, []byte("1234567890"))
	require.NoError(t, err)
	assert.Equal(t, priv, decrypted)
	assert.Equal(t, kf.Address, addr)
}

func TestDecryptWrongPassphraseFailsMacBeforeCipher(t *testing.T) {
	priv := fixturePrivateKey(t)
	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Passphrase: []byte("1234567890"),
		Level:      kdf.LevelNormal,
	})
	require.NoError(t, err)

	_, _, err = keyfile.Decrypt(kf, []byte("_"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.FailedMacValidation))
}

// TestDecryptScryptKeyfileFixture is end-to-end scenario (a): kdf=scrypt
// {n=1024,r=8,p=1}, address 0x0047201aed0b69875b24b614dda0270bcd9f11cc,
// passphrase "1234567890" ⇒ the fixture private key; wrong passphrase "_"
// ⇒ FailedMacValidation. n=1024 matches none of the three configured
// KdfDepthLevel tiers, so CreateParams/New can't produce it; built by hand
// via buildCoreKeyfile instead (the fixture gives no raw ciphertext/salt/iv
// to decode against, only the resulting values, so salt/iv are freshly
// drawn here and the literal private key is what's asserted).
func TestDecryptScryptKeyfileFixture(t *testing.T) {
	priv := fixturePrivateKey(t)
	kf := buildCoreKeyfile(t, priv, []byte("1234567890"), kdf.Scrypt{N: 1024, R: 8, P: 1})

	addr, decrypted, err := keyfile.Decrypt(kf, []byte("1234567890"))
	require.NoError(t, err)
	assert.Equal(t, priv, decrypted)

	wantAddr, err := primitives.HexToAddress("0x0047201aed0b69875b24b614dda0270bcd9f11cc")
	require.NoError(t, err)
	assert.Equal(t, wantAddr, addr)

	_, _, err = keyfile.Decrypt(kf, []byte("_"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.FailedMacValidation))
}

// fixturePrivateKeyB is scenario (b)'s resulting private key: kdf=pbkdf2
// {c=10240, prf=hmac-sha256}, passphrase "1234567890".
func fixturePrivateKeyB(t *testing.T) primitives.PrivateKey {
	t.Helper()
	b, err := primitives.DecodeHexFixed("00b413b37c71bfb92719d16e28d7329dea5befa0d0b8190742f89e55617991cf", 32)
	require.NoError(t, err)
	var pk primitives.PrivateKey
	copy(pk[:], b)
	return pk
}

// TestDecryptPbkdf2KeyfileFixture is end-to-end scenario (b). c=10240
// matches kdf.LevelNormal's pbkdf2 tier exactly, so this one round-trips
// through the public CreateParams/Level API.
func TestDecryptPbkdf2KeyfileFixture(t *testing.T) {
	priv := fixturePrivateKeyB(t)
	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Passphrase: []byte("1234567890"),
		Level:      kdf.LevelNormal,
		UsePbkdf2:  true,
	})
	require.NoError(t, err)
	core, ok := kf.Crypto.(keyfile.Core)
	require.True(t, ok)
	assert.Equal(t, kdf.KindPbkdf2, core.KDF.Kind())
	assert.Equal(t, kdf.Pbkdf2{C: 10240, PRF: "hmac-sha256"}, core.KDF)

	_, decrypted, err := keyfile.Decrypt(kf, []byte("1234567890"))
	require.NoError(t, err)
	assert.Equal(t, priv, decrypted)
}

func TestSerializeDeserializeIdentity(t *testing.T) {
	priv := fixturePrivateKey(t)
	kf, err := keyfile.New(keyfile.CreateParams{
		Name:        "alice",
		Description: "primary account",
		Passphrase:  []byte("hunter2"),
		Level:       kdf.LevelNormal,
	})
	_ = priv
	require.NoError(t, err)

	data, err := kf.MarshalJSON()
	require.NoError(t, err)

	var roundTripped keyfile.KeyFile
	require.NoError(t, roundTripped.UnmarshalJSON(data))

	assert.True(t, kf.Equal(&roundTripped))
	assert.Equal(t, kf.Name, roundTripped.Name)
	assert.Equal(t, kf.Description, roundTripped.Description)
	assert.Equal(t, kf.Address, roundTripped.Address)
}

func TestUnsupportedVersionRejected(t *testing.T) {
	var kf keyfile.KeyFile
	err := kf.UnmarshalJSON([]byte(`{"version":2,"id":"a928d7c2-b37b-464c-a70b-b9979d59fac4","crypto":{}}`))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedVersion))
}

func TestShakeKeepsUUIDAndAddress(t *testing.T) {
	priv := fixturePrivateKey(t)
	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Name:       "shaken",
		Passphrase: []byte("old-pass"),
		Level:      kdf.LevelNormal,
	})
	require.NoError(t, err)

	shaken, err := keyfile.Shake(kf, []byte("old-pass"), []byte("new-pass"), kdf.LevelNormal, false)
	require.NoError(t, err)

	assert.Equal(t, kf.UUID, shaken.UUID)
	assert.Equal(t, kf.Address, shaken.Address)
	assert.Equal(t, kf.Name, shaken.Name)

	_, _, err = keyfile.Decrypt(shaken, []byte("old-pass"))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.FailedMacValidation))

	_, decrypted, err := keyfile.Decrypt(shaken, []byte("new-pass"))
	require.NoError(t, err)
	assert.Equal(t, priv, decrypted)
}

func TestShakePreservesKdfKindAndLevelOverCallerDefaults(t *testing.T) {
	priv := fixturePrivateKey(t)
	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Name:       "imported",
		Passphrase: []byte("old-pass"),
		Level:      kdf.LevelHigh,
		UsePbkdf2:  true,
	})
	require.NoError(t, err)

	// Server-configured defaults differ from the keyfile's own kind/depth;
	// Shake must keep pbkdf2-high rather than adopt scrypt-normal.
	shaken, err := keyfile.Shake(kf, []byte("old-pass"), []byte("new-pass"), kdf.LevelNormal, false)
	require.NoError(t, err)

	core, ok := shaken.Crypto.(keyfile.Core)
	require.True(t, ok)
	assert.Equal(t, kdf.KindPbkdf2, core.KDF.Kind())

	lvl, ok := kdf.LevelOf(core.KDF)
	require.True(t, ok)
	assert.Equal(t, kdf.LevelHigh, lvl)

	_, decrypted, err := keyfile.Decrypt(shaken, []byte("new-pass"))
	require.NoError(t, err)
	assert.Equal(t, priv, decrypted)
}

func TestUpdateOnlyTouchesMetadata(t *testing.T) {
	priv := fixturePrivateKey(t)
	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Name:       "before",
		Passphrase: []byte("pw"),
		Level:      kdf.LevelNormal,
	})
	require.NoError(t, err)

	originalUUID := kf.UUID
	name := "after"
	visible := false
	keyfile.Update(kf, &name, nil, &visible)

	assert.Equal(t, "after", kf.Name)
	assert.Equal(t, originalUUID, kf.UUID)
	assert.False(t, kf.IsVisible())
}
