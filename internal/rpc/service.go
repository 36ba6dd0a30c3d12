// Package rpc implements the JSON-RPC method table spec §6 lists
// ("signer_*" plus openrpc_discover), dispatched over a single HTTP port
// with permissive CORS. Grounded on the teacher's internal/clob.Client,
// which drives the same go-ethereum signing primitives from an HTTP
// client's side; here they're exposed from the server side instead.
package rpc

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/contract"
	"github.com/gipsh/emerald-signer/internal/kdf"
	"github.com/gipsh/emerald-signer/internal/keyfile"
	"github.com/gipsh/emerald-signer/internal/mnemonic"
	"github.com/gipsh/emerald-signer/internal/primitives"
	"github.com/gipsh/emerald-signer/internal/storage"
	"github.com/gipsh/emerald-signer/internal/txsigner"
	"github.com/gipsh/emerald-signer/internal/typeddata"
)

// defaultMnemonicWords is used by signer_generateMnemonic, which takes no
// parameters (spec §6).
const defaultMnemonicWords = 24

// Additional carries the trailing {chain, chain_id} object every method
// in spec §6 accepts.
type Additional struct {
	Chain   string `json:"chain,omitempty"`
	ChainID *int64 `json:"chain_id,omitempty"`
}

// Service implements every signer_* method against a storage.Controller
// and one contract.Backend per chain.
type Service struct {
	Controller    *storage.Controller
	Contracts     map[string]*contract.Backend
	DefaultChain  string
	SecurityLevel kdf.Level
	UsePbkdf2     bool
	Log           zerolog.Logger
}

func (s *Service) keystore(chain string) (storage.KeyfileBackend, error) {
	return s.Controller.Keystore(s.resolveChain(chain))
}

func (s *Service) resolveChain(chain string) string {
	if chain == "" {
		return s.DefaultChain
	}
	return chain
}

func (s *Service) contracts(chain string) (*contract.Backend, error) {
	b, ok := s.Contracts[s.resolveChain(chain)]
	if !ok {
		return nil, storage.ErrNoStorageFor(chain)
	}
	return b, nil
}

// ── address / account management ─────────────────────────────────────────

// ListAddressesParams is signer_listAddresses' single element.
type ListAddressesParams struct {
	Additional Additional
}

func (s *Service) ListAddresses(p ListAddressesParams) ([]storage.AccountInfo, error) {
	ks, err := s.keystore(p.Additional.Chain)
	if err != nil {
		return nil, err
	}
	return storage.ListAccounts(ks, false)
}

// ListAccountsParams is signer_listAccounts' single element.
type ListAccountsParams struct {
	ShowHidden bool   `json:"show_hidden"`
	Additional Additional
}

func (s *Service) ListAccounts(p ListAccountsParams) ([]storage.AccountInfo, error) {
	ks, err := s.keystore(p.Additional.Chain)
	if err != nil {
		return nil, err
	}
	return storage.ListAccounts(ks, p.ShowHidden)
}

// ImportAddressParams is signer_importAddress's request shape.
type ImportAddressParams struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ImportAddress records a watch-only entry: an address with no locally
// held private key, represented as a Hardware-variant keyfile per spec
// §9's open sum-type design note.
func (s *Service) ImportAddress(p ImportAddressParams, add Additional) (bool, error) {
	addr, err := primitives.HexToAddress(p.Address)
	if err != nil {
		return false, err
	}
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return false, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return false, apperr.Wrap(apperr.StorageError, "uuid generation", err)
	}
	kf := &keyfile.KeyFile{
		UUID: id, Address: addr, HasAddress: true,
		Name: p.Name, Description: p.Description,
		Crypto: keyfile.Hardware{},
	}
	if err := ks.Put(kf); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAddressParams is signer_deleteAddress's request shape.
type DeleteAddressParams struct {
	Address string `json:"address"`
}

func (s *Service) DeleteAddress(p DeleteAddressParams, add Additional) (bool, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return false, err
	}
	addr, err := primitives.HexToAddress(p.Address)
	if err != nil {
		return false, err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return false, err
	}
	if err := ks.Delete(kf.UUID.String()); err != nil {
		return false, err
	}
	return true, nil
}

// VisibilityParams is shared by signer_hideAccount and signer_unhideAccount.
type VisibilityParams struct {
	Address string `json:"address"`
}

func (s *Service) setVisible(p VisibilityParams, add Additional, visible bool) (bool, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return false, err
	}
	addr, err := primitives.HexToAddress(p.Address)
	if err != nil {
		return false, err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return false, err
	}
	keyfile.Update(kf, nil, nil, &visible)
	if err := ks.Put(kf); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) HideAccount(p VisibilityParams, add Additional) (bool, error) {
	return s.setVisible(p, add, false)
}

func (s *Service) UnhideAccount(p VisibilityParams, add Additional) (bool, error) {
	return s.setVisible(p, add, true)
}

// ShakeAccountParams is signer_shakeAccount's request shape.
type ShakeAccountParams struct {
	Address        string `json:"address"`
	OldPassphrase  string `json:"old_passphrase"`
	NewPassphrase  string `json:"new_passphrase"`
}

func (s *Service) ShakeAccount(p ShakeAccountParams, add Additional) (bool, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return false, err
	}
	addr, err := primitives.HexToAddress(p.Address)
	if err != nil {
		return false, err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return false, err
	}
	reencrypted, err := keyfile.Shake(kf, []byte(p.OldPassphrase), []byte(p.NewPassphrase), s.SecurityLevel, s.UsePbkdf2)
	if err != nil {
		return false, err
	}
	if err := ks.Put(reencrypted); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateAccountParams is signer_updateAccount's request shape.
type UpdateAccountParams struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) UpdateAccount(p UpdateAccountParams, add Additional) (bool, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return false, err
	}
	addr, err := primitives.HexToAddress(p.Address)
	if err != nil {
		return false, err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return false, err
	}
	keyfile.Update(kf, &p.Name, &p.Description, nil)
	if err := ks.Put(kf); err != nil {
		return false, err
	}
	return true, nil
}

// ImportAccount decodes a caller-supplied keyfile JSON and stores it in
// canonical form, returning its address. A keyfile without an address is
// rejected.
func (s *Service) ImportAccount(raw []byte, add Additional) (primitives.Address, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return primitives.Address{}, err
	}
	var kf keyfile.KeyFile
	if err := kf.UnmarshalJSON(raw); err != nil {
		return primitives.Address{}, err
	}
	if !kf.HasAddress {
		return primitives.Address{}, apperr.New(apperr.InvalidDataFormat, "imported keyfile has no address")
	}
	if err := ks.Put(&kf); err != nil {
		return primitives.Address{}, err
	}
	return kf.Address, nil
}

// ExportAccountParams is signer_exportAccount's request shape.
type ExportAccountParams struct {
	Address string `json:"address"`
}

func (s *Service) ExportAccount(p ExportAccountParams, add Additional) ([]byte, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return nil, err
	}
	addr, err := primitives.HexToAddress(p.Address)
	if err != nil {
		return nil, err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return nil, err
	}
	return kf.MarshalJSON()
}

// NewAccountParams is signer_newAccount's request shape.
type NewAccountParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Passphrase  string `json:"passphrase"`
}

func (s *Service) NewAccount(p NewAccountParams, add Additional) (primitives.Address, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return primitives.Address{}, err
	}
	kf, priv, err := keyfile.New(keyfile.CreateParams{
		Name: p.Name, Description: p.Description, Passphrase: []byte(p.Passphrase),
		Level: s.SecurityLevel, UsePbkdf2: s.UsePbkdf2,
	})
	if err != nil {
		return primitives.Address{}, err
	}
	priv.Zero()
	if err := ks.Put(kf); err != nil {
		return primitives.Address{}, err
	}
	return kf.Address, nil
}

// ── transaction & message signing ────────────────────────────────────────

// TxParams mirrors the JSON-RPC transaction object (spec §6).
type TxParams struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Gas      uint64 `json:"gas"`
	GasPrice string `json:"gasPrice"`
	Value    string `json:"value"`
	Data     string `json:"data"`
	Nonce    uint64 `json:"nonce"`
}

func parseBigHexOrDecimal(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	n := new(big.Int)
	base := 10
	t := s
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		base = 16
		t = t[2:]
	}
	if _, ok := n.SetString(t, base); !ok {
		return nil, apperr.Newf(apperr.InvalidDataFormat, "invalid integer %q", s)
	}
	return n, nil
}

func decodeHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, "hex decode", err)
	}
	return b, nil
}

// SignTransaction signs a transaction from tx.From's key, returning the
// hex-RLP signed transaction (spec §6). It uses EIP-155 v-encoding when
// add.ChainID is a positive chain id, and legacy 27/28 encoding otherwise.
func (s *Service) SignTransaction(tx TxParams, passphrase string, add Additional) (string, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return "", err
	}
	fromAddr, err := primitives.HexToAddress(tx.From)
	if err != nil {
		return "", err
	}
	kf, err := ks.GetByAddress(fromAddr)
	if err != nil {
		return "", err
	}
	_, priv, err := keyfile.Decrypt(kf, []byte(passphrase))
	if err != nil {
		return "", err
	}
	defer priv.Zero()

	gasPrice, err := parseBigHexOrDecimal(tx.GasPrice)
	if err != nil {
		return "", err
	}
	value, err := parseBigHexOrDecimal(tx.Value)
	if err != nil {
		return "", err
	}
	data, err := decodeHexBytes(tx.Data)
	if err != nil {
		return "", err
	}

	var to *primitives.Address
	if tx.To != "" {
		t, err := primitives.HexToAddress(tx.To)
		if err != nil {
			return "", err
		}
		to = &t
	}

	var chainID *big.Int
	if add.ChainID != nil {
		chainID = big.NewInt(*add.ChainID)
	}

	signed, err := txsigner.Sign(txsigner.Transaction{
		Nonce: tx.Nonce, GasPrice: gasPrice, GasLimit: tx.Gas, To: to, Value: value, Data: data,
	}, priv, chainID)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(signed), nil
}

// Sign implements signer_sign: personal-message prefix signing.
func (s *Service) Sign(message string, address string, passphrase string, add Additional) (string, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return "", err
	}
	addr, err := primitives.HexToAddress(address)
	if err != nil {
		return "", err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return "", err
	}
	_, priv, err := keyfile.Decrypt(kf, []byte(passphrase))
	if err != nil {
		return "", err
	}
	defer priv.Zero()

	msg, err := decodeHexBytes(message)
	if err != nil {
		return "", err
	}
	sig, err := txsigner.SignPersonalMessage(msg, priv)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(sig[:]), nil
}

// TypedDataParams mirrors the EIP-712 wire shape spec §3/§8(e) describes.
type TypedDataParams struct {
	Types       map[string][]typeddata.Field `json:"types"`
	PrimaryType string                       `json:"primaryType"`
	Domain      map[string]interface{}       `json:"domain"`
	Message     map[string]interface{}       `json:"message"`
}

// SignTypedData implements signer_signTypedData.
func (s *Service) SignTypedData(address string, td TypedDataParams, passphrase string, add Additional) (string, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return "", err
	}
	addr, err := primitives.HexToAddress(address)
	if err != nil {
		return "", err
	}
	kf, err := ks.GetByAddress(addr)
	if err != nil {
		return "", err
	}
	_, priv, err := keyfile.Decrypt(kf, []byte(passphrase))
	if err != nil {
		return "", err
	}
	defer priv.Zero()

	digest, err := typeddata.Digest(typeddata.TypedData{
		Types: td.Types, PrimaryType: td.PrimaryType, Domain: td.Domain, Message: td.Message,
	})
	if err != nil {
		return "", err
	}
	sig, err := txsigner.SignDigest(digest, priv)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(sig[:]), nil
}

// ── contracts ─────────────────────────────────────────────────────────────

// EncodeFunctionCallParams is signer_encodeFunctionCall's second element:
// the ABI type list and the argument values to pack, keyed by function
// name/signature (the "value" positional parameter, spec §6).
type EncodeFunctionCallParams struct {
	Types  []string      `json:"types"`
	Values []interface{} `json:"values"`
}

func (s *Service) EncodeFunctionCall(functionName string, p EncodeFunctionCallParams) (string, error) {
	packed, err := contract.EncodeAdHocCall(functionName, p.Types, p.Values)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(packed), nil
}

func (s *Service) ListContracts(add Additional) ([]string, error) {
	c, err := s.contracts(add.Chain)
	if err != nil {
		return nil, err
	}
	return c.List()
}

func (s *Service) ImportContract(name string, abiJSON []byte, add Additional) (bool, error) {
	c, err := s.contracts(add.Chain)
	if err != nil {
		return false, err
	}
	if err := c.Import(name, abiJSON); err != nil {
		return false, err
	}
	return true, nil
}

// ── mnemonic ──────────────────────────────────────────────────────────────

func (s *Service) GenerateMnemonic() (string, error) {
	return mnemonic.Generate(defaultMnemonicWords)
}

// ImportMnemonicParams is signer_importMnemonic's request shape.
type ImportMnemonicParams struct {
	Mnemonic    string `json:"mnemonic"`
	HDPath      string `json:"hd_path"`
	Passphrase  string `json:"passphrase"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) ImportMnemonic(p ImportMnemonicParams, add Additional) (primitives.Address, error) {
	ks, err := s.keystore(add.Chain)
	if err != nil {
		return primitives.Address{}, err
	}
	if _, err := mnemonic.MnemonicToEntropy(p.Mnemonic); err != nil {
		return primitives.Address{}, err
	}
	path, err := mnemonic.ParsePath(p.HDPath)
	if err != nil {
		return primitives.Address{}, err
	}
	seed := mnemonic.SeedFromMnemonic(p.Mnemonic, "")
	priv, err := mnemonic.DerivePath(seed, path)
	if err != nil {
		return primitives.Address{}, err
	}
	defer priv.Zero()

	kf, err := keyfile.NewFromPrivateKey(priv, keyfile.CreateParams{
		Name: p.Name, Description: p.Description, Passphrase: []byte(p.Passphrase),
		Level: s.SecurityLevel, UsePbkdf2: s.UsePbkdf2,
	})
	if err != nil {
		return primitives.Address{}, err
	}
	if err := ks.Put(kf); err != nil {
		return primitives.Address{}, err
	}
	return kf.Address, nil
}
