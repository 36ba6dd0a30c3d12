package kdf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/kdf"
)

func TestScryptDeriveRoundTrip(t *testing.T) {
	params, err := kdf.ScryptParamsForLevel(kdf.LevelNormal)
	require.NoError(t, err)

	var salt [32]byte
	copy(salt[:], []byte("some salt used for derivation..."))

	dk1, err := params.Derive([]byte("correct horse battery staple"), salt)
	require.NoError(t, err)
	dk2, err := params.Derive([]byte("correct horse battery staple"), salt)
	require.NoError(t, err)
	assert.Equal(t, dk1, dk2)

	dk3, err := params.Derive([]byte("wrong passphrase"), salt)
	require.NoError(t, err)
	assert.NotEqual(t, dk1, dk3)
}

func TestPbkdf2DeriveRoundTrip(t *testing.T) {
	params, err := kdf.Pbkdf2ParamsForLevel(kdf.LevelNormal)
	require.NoError(t, err)

	var salt [32]byte
	copy(salt[:], []byte("another salt for pbkdf2 tests.."))

	dk1, err := params.Derive([]byte("passphrase"), salt)
	require.NoError(t, err)
	dk2, err := params.Derive([]byte("passphrase"), salt)
	require.NoError(t, err)
	assert.Equal(t, dk1, dk2)
}

func TestPbkdf2UnsupportedPrf(t *testing.T) {
	p := kdf.Pbkdf2{C: 1000, PRF: "hmac-sha512"}
	var salt [32]byte
	_, err := p.Derive([]byte("x"), salt)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedPrf))
}

func TestLevelsProduceIncreasingCost(t *testing.T) {
	normal, err := kdf.ScryptParamsForLevel(kdf.LevelNormal)
	require.NoError(t, err)
	high, err := kdf.ScryptParamsForLevel(kdf.LevelHigh)
	require.NoError(t, err)
	ultra, err := kdf.ScryptParamsForLevel(kdf.LevelUltra)
	require.NoError(t, err)

	assert.Less(t, normal.N, high.N)
	assert.Less(t, high.N, ultra.N)
}

func TestScryptParamsForLevelUnknown(t *testing.T) {
	_, err := kdf.ScryptParamsForLevel("nonsense")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidKdfDepth))
}

func TestLevelOfMatchesKnownTiers(t *testing.T) {
	scryptHigh, err := kdf.ScryptParamsForLevel(kdf.LevelHigh)
	require.NoError(t, err)
	lvl, ok := kdf.LevelOf(scryptHigh)
	require.True(t, ok)
	assert.Equal(t, kdf.LevelHigh, lvl)

	pbkdf2Ultra, err := kdf.Pbkdf2ParamsForLevel(kdf.LevelUltra)
	require.NoError(t, err)
	lvl, ok = kdf.LevelOf(pbkdf2Ultra)
	require.True(t, ok)
	assert.Equal(t, kdf.LevelUltra, lvl)
}

func TestLevelOfUnknownParamsReportsFalse(t *testing.T) {
	_, ok := kdf.LevelOf(kdf.Scrypt{N: 1024, R: 8, P: 1})
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := kdf.ParseKind("Scrypt")
	require.NoError(t, err)
	assert.Equal(t, kdf.KindScrypt, k)

	k, err = kdf.ParseKind("PBKDF2")
	require.NoError(t, err)
	assert.Equal(t, kdf.KindPbkdf2, k)

	_, err = kdf.ParseKind("argon2")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedKdf))
}
