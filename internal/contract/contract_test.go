package contract_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/contract"
)

const erc20ABI = `[
  {"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

func TestImportAndListContracts(t *testing.T) {
	b, err := contract.NewBackend(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, b.Import("token", []byte(erc20ABI)))

	names, err := b.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"token"}, names)
}

func TestImportRejectsInvalidABI(t *testing.T) {
	b, err := contract.NewBackend(t.TempDir())
	require.NoError(t, err)

	err = b.Import("broken", []byte(`{not json`))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidDataFormat))
}

func TestEncodeFunctionCall(t *testing.T) {
	b, err := contract.NewBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, b.Import("token", []byte(erc20ABI)))

	packed, err := b.EncodeFunctionCall("token", "transfer",
		common.HexToAddress("0x000000000000000000000000000000000000dEaD"), big.NewInt(1_000_000_000_000_000_000))
	require.NoError(t, err)
	// 4-byte selector + 2*32-byte args.
	assert.Len(t, packed, 4+32+32)
}

func TestEncodeFunctionCallUnknownContract(t *testing.T) {
	b, err := contract.NewBackend(t.TempDir())
	require.NoError(t, err)
	_, err = b.EncodeFunctionCall("missing", "transfer")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestEncodeAdHocCall(t *testing.T) {
	packed, err := contract.EncodeAdHocCall("transfer",
		[]string{"address", "uint256"},
		[]interface{}{"0x000000000000000000000000000000000000dEaD", "1000000000000000000"})
	require.NoError(t, err)
	assert.Len(t, packed, 32+32)
}

func TestEncodeAdHocCallMismatchedArity(t *testing.T) {
	_, err := contract.EncodeAdHocCall("transfer", []string{"address", "uint256"}, []interface{}{"0xdead"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.InvalidDataFormat))
}
