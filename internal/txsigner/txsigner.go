// Package txsigner builds the legacy Ethereum transaction RLP encoding,
// signs it with EIP-155 chain binding, and signs arbitrary "personal"
// messages with the same key. Grounded on the teacher's
// internal/clob.PersonalSign (moved here and generalized) and on
// go-ethereum/rlp + go-ethereum/crypto, which the teacher already
// depends on for its own signing path.
package txsigner

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// Transaction is the legacy Ethereum transaction shape from spec §3.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       *primitives.Address // nil => contract creation
	Value    *big.Int
	Data     []byte
}

// unsignedRLP is the field order spec §4.5 step 1 describes. For a
// contract-creation transaction, To is an empty RLP string (nil address
// pointer serializes that way already via go-ethereum/rlp's []byte rule).
type unsignedRLP struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       []byte
	Value    *big.Int
	Data     []byte
}

type unsignedEIP155RLP struct {
	Nonce      uint64
	GasPrice   *big.Int
	GasLimit   uint64
	To         []byte
	Value      *big.Int
	Data       []byte
	ChainID    *big.Int
	ChainIDPad *big.Int // always zero
	Unused     *big.Int // always zero
}

type signedRLP struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       []byte
	Value    *big.Int
	Data     []byte
	V        *big.Int
	R        *big.Int
	S        *big.Int
}

func toAddrBytes(to *primitives.Address) []byte {
	if to == nil {
		return nil
	}
	return to.Bytes()
}

// signingDigest computes keccak256 of the unsigned RLP list, optionally
// EIP-155-extended with [chainID, 0, 0] (spec §4.5 step 1-2).
func signingDigest(tx Transaction, chainID *big.Int) (primitives.Hash, error) {
	base := unsignedRLP{
		Nonce: tx.Nonce, GasPrice: tx.GasPrice, GasLimit: tx.GasLimit,
		To: toAddrBytes(tx.To), Value: tx.Value, Data: tx.Data,
	}

	var encoded []byte
	var err error
	if chainID != nil && chainID.Sign() > 0 {
		encoded, err = rlp.EncodeToBytes(unsignedEIP155RLP{
			Nonce: base.Nonce, GasPrice: base.GasPrice, GasLimit: base.GasLimit,
			To: base.To, Value: base.Value, Data: base.Data,
			ChainID: chainID, ChainIDPad: big.NewInt(0), Unused: big.NewInt(0),
		})
	} else {
		encoded, err = rlp.EncodeToBytes(base)
	}
	if err != nil {
		return primitives.Hash{}, apperr.Wrap(apperr.InvalidDataFormat, "rlp encode unsigned tx", err)
	}
	return primitives.Keccak256(encoded), nil
}

// Sign signs tx with priv. If chainID is nil or zero, v is encoded legacy
// style (27/28); otherwise EIP-155 (chainID*2+35+recid), per spec §4.5
// step 4. Returns the fully signed RLP bytes.
func Sign(tx Transaction, priv primitives.PrivateKey, chainID *big.Int) ([]byte, error) {
	digest, err := signingDigest(tx, chainID)
	if err != nil {
		return nil, err
	}

	ecpriv, err := primitives.ToECDSA(priv)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(digest.Bytes(), ecpriv)
	if err != nil {
		return nil, apperr.Wrap(apperr.EcdsaCrypto, "sign transaction digest", err)
	}
	r := new(big.Int).SetBytes(sig[0:32])
	s := new(big.Int).SetBytes(sig[32:64])
	recid := int64(sig[64])

	var v *big.Int
	if chainID != nil && chainID.Sign() > 0 {
		v = new(big.Int).Add(new(big.Int).Mul(chainID, big.NewInt(2)), big.NewInt(35+recid))
	} else {
		v = big.NewInt(27 + recid)
	}

	out, err := rlp.EncodeToBytes(signedRLP{
		Nonce: tx.Nonce, GasPrice: tx.GasPrice, GasLimit: tx.GasLimit,
		To: toAddrBytes(tx.To), Value: tx.Value, Data: tx.Data,
		V: v, R: r, S: s,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "rlp encode signed tx", err)
	}
	return out, nil
}

// ── Personal message signing ─────────────────────────────────────────────

// PersonalDigest computes keccak256("\x19Ethereum Signed Message:\n" +
// len(msg) + msg), per spec §4.5.
func PersonalDigest(msg []byte) primitives.Hash {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return primitives.Keccak256([]byte(prefix), msg)
}

// SignDigest signs an already-computed 32-byte digest (used for both
// personal messages and EIP-712 typed data) and returns the 65-byte
// [R || S || V] signature with V encoded as 27/28 (spec §4.5).
func SignDigest(digest primitives.Hash, priv primitives.PrivateKey) ([65]byte, error) {
	var out [65]byte
	ecpriv, err := primitives.ToECDSA(priv)
	if err != nil {
		return out, err
	}
	sig, err := crypto.Sign(digest.Bytes(), ecpriv)
	if err != nil {
		return out, apperr.Wrap(apperr.EcdsaCrypto, "sign digest", err)
	}
	copy(out[:64], sig[:64])
	out[64] = sig[64] + 27
	return out, nil
}

// SignPersonalMessage implements signer_sign: prefix, hash, sign.
func SignPersonalMessage(msg []byte, priv primitives.PrivateKey) ([65]byte, error) {
	return SignDigest(PersonalDigest(msg), priv)
}
