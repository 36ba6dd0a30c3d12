package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/kdf"
	"github.com/gipsh/emerald-signer/internal/keyfile"
	"github.com/gipsh/emerald-signer/internal/primitives"
	"github.com/gipsh/emerald-signer/internal/storage"
)

func newBackends(t *testing.T) map[string]storage.KeyfileBackend {
	t.Helper()
	base := t.TempDir()

	fs, err := storage.NewFsBackend(base + "/fs-keystore")
	require.NoError(t, err)

	ldb, err := storage.NewLevelDBBackend(base + "/leveldb-keystore")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ldb.Close() })

	return map[string]storage.KeyfileBackend{
		"filesystem": fs,
		"leveldb":    ldb,
	}
}

// fixtureKeyfile builds a keyfile for the address used in spec §8(d)'s
// search-by-address fixture: 0xc0de379b51d582e1600c76dd1efee8ed024b844a.
func fixtureKeyfile(t *testing.T) *keyfile.KeyFile {
	t.Helper()
	addr, err := primitives.HexToAddress("0xc0de379b51d582e1600c76dd1efee8ed024b844a")
	require.NoError(t, err)

	kf, _, err := keyfile.New(keyfile.CreateParams{
		Name:       "search-by-address fixture",
		Passphrase: []byte("pw"),
		Level:      kdf.LevelNormal,
	})
	require.NoError(t, err)
	// Force the known fixture address onto the generated keyfile; only the
	// address is asserted on by this test, not key material.
	kf.Address = addr
	kf.HasAddress = true
	return kf
}

func TestBackendsAreObservationallyEquivalent(t *testing.T) {
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			kf := fixtureKeyfile(t)
			require.NoError(t, backend.Put(kf))

			byUUID, err := backend.Get(kf.UUID.String())
			require.NoError(t, err)
			assert.True(t, kf.Equal(byUUID))

			byAddr, err := backend.GetByAddress(kf.Address)
			require.NoError(t, err)
			assert.Equal(t, kf.UUID.String(), byAddr.UUID.String())

			list, err := backend.List()
			require.NoError(t, err)
			assert.Len(t, list, 1)

			require.NoError(t, backend.Delete(kf.UUID.String()))
			_, err = backend.Get(kf.UUID.String())
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.NotFound))
		})
	}
}

func TestGetByAddressNotFound(t *testing.T) {
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			addr, err := primitives.HexToAddress("0x000000000000000000000000000000000000dead")
			require.NoError(t, err)
			_, err = backend.GetByAddress(addr)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.NotFound))
		})
	}
}

func TestPutOverwritesSameUUID(t *testing.T) {
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			kf := fixtureKeyfile(t)
			require.NoError(t, backend.Put(kf))

			kf.Name = "renamed"
			require.NoError(t, backend.Put(kf))

			list, err := backend.List()
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "renamed", list[0].Name)
		})
	}
}

func TestListAccountsHidesByDefault(t *testing.T) {
	for name, backend := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			visible := fixtureKeyfile(t)
			hidden := fixtureKeyfile(t)
			hiddenFlag := false
			hidden.Visible = &hiddenFlag

			require.NoError(t, backend.Put(visible))
			require.NoError(t, backend.Put(hidden))

			shown, err := storage.ListAccounts(backend, false)
			require.NoError(t, err)
			assert.Len(t, shown, 1)

			all, err := storage.ListAccounts(backend, true)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestControllerChainPartitioning(t *testing.T) {
	ctrl, err := storage.NewController(t.TempDir(), storage.TypeFilesystem)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	for _, chain := range storage.ChainNames {
		ks, err := ctrl.Keystore(chain)
		require.NoError(t, err)
		require.NotNil(t, ks)
	}

	_, err = ctrl.Keystore("not-a-real-chain")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.StorageError))
}

func TestParseType(t *testing.T) {
	typ, err := storage.ParseType("Filesystem")
	require.NoError(t, err)
	assert.Equal(t, storage.TypeFilesystem, typ)

	typ, err = storage.ParseType("LEVELDB")
	require.NoError(t, err)
	assert.Equal(t, storage.TypeLevelDB, typ)

	_, err = storage.ParseType("memory")
	require.Error(t, err)
}
