package txsigner_test

import (
	"math/big"
	"testing"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/primitives"
	"github.com/gipsh/emerald-signer/internal/txsigner"
)

func testPrivateKey(t *testing.T) (primitives.PrivateKey, *primitives.Address) {
	t.Helper()
	var priv primitives.PrivateKey
	b, err := primitives.DecodeHexFixed("fa384e6fe915747cd13faa1022044b0def5e6bec4238bec53166487a5cca569f", 32)
	require.NoError(t, err)
	copy(priv[:], b)
	addr, err := primitives.AddressFromPrivateKey(priv)
	require.NoError(t, err)
	return priv, &addr
}

func TestSignLegacyVEncoding(t *testing.T) {
	priv, to := testPrivateKey(t)
	tx := txsigner.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1_000_000_000),
		GasLimit: 21000,
		To:       to,
		Value:    big.NewInt(1),
		Data:     nil,
	}

	raw, err := txsigner.Sign(tx, priv, nil)
	require.NoError(t, err)

	var decoded gethtypes.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	v, _, _ := decoded.RawSignatureValues()
	assert.True(t, v.Cmp(big.NewInt(27)) == 0 || v.Cmp(big.NewInt(28)) == 0)
}

func TestSignEIP155VEncoding(t *testing.T) {
	priv, to := testPrivateKey(t)
	tx := txsigner.Transaction{
		Nonce:    5,
		GasPrice: big.NewInt(2_000_000_000),
		GasLimit: 21000,
		To:       to,
		Value:    big.NewInt(0),
		Data:     []byte{0x01, 0x02},
	}

	chainID := big.NewInt(1)
	raw, err := txsigner.Sign(tx, priv, chainID)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	var decoded gethtypes.Transaction
	require.NoError(t, decoded.UnmarshalBinary(raw))
	v, _, _ := decoded.RawSignatureValues()

	// EIP-155: v = chainId*2 + 35 + recid, so v is 37 or 38 for chainId=1.
	assert.True(t, v.Cmp(big.NewInt(37)) == 0 || v.Cmp(big.NewInt(38)) == 0)
}

func TestSignContractCreation(t *testing.T) {
	priv, _ := testPrivateKey(t)
	tx := txsigner.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		GasLimit: 100000,
		To:       nil,
		Value:    big.NewInt(0),
		Data:     []byte{0x60, 0x00},
	}
	raw, err := txsigner.Sign(tx, priv, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestPersonalDigestPrefix(t *testing.T) {
	msg := []byte("hello world")
	d1 := txsigner.PersonalDigest(msg)
	d2 := txsigner.PersonalDigest(msg)
	assert.Equal(t, d1, d2)

	d3 := txsigner.PersonalDigest([]byte("hello world!"))
	assert.NotEqual(t, d1, d3)
}

func TestSignPersonalMessageRecoversSigner(t *testing.T) {
	priv, addr := testPrivateKey(t)
	msg := []byte("sign me")

	sig, err := txsigner.SignPersonalMessage(msg, priv)
	require.NoError(t, err)
	assert.True(t, sig[64] == 27 || sig[64] == 28)

	digest := txsigner.PersonalDigest(msg)
	sigForRecover := sig
	sigForRecover[64] -= 27
	pub, err := gethcrypto.SigToPub(digest.Bytes(), sigForRecover[:])
	require.NoError(t, err)
	recovered := primitives.AddressFromPublicKey(pub)
	assert.Equal(t, *addr, recovered)
}
