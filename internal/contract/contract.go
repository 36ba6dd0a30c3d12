// Package contract is the thin ABI-encoding and ABI-storage wrapper spec
// §1 describes as an external collaborator: "only its input/output
// contract is noted". It stores named contract ABIs per chain partition
// (spec §4.7, "<base>/<chain>/contracts/*.json") and encodes function
// calls through go-ethereum's accounts/abi package, which the teacher
// already depends on for its own contract calls.
package contract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/gipsh/emerald-signer/internal/apperr"
)

// Backend stores one ABI JSON file per contract name in a directory
// (mirrors internal/storage's filesystem keyfile backend, simplified: ABI
// files are immutable blobs, not re-encrypted records).
type Backend struct {
	dir string
}

// NewBackend creates dir if absent and returns a backend rooted there.
func NewBackend(dir string) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperr.Wrap(apperr.StorageError, fmt.Sprintf("create contracts dir %s", dir), err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) pathFor(name string) string {
	return filepath.Join(b.dir, name+".json")
}

// Import stores abiJSON under name, overwriting any existing entry.
func (b *Backend) Import(name string, abiJSON json.RawMessage) error {
	if _, err := gethabi.JSON(strings.NewReader(string(abiJSON))); err != nil {
		return apperr.Wrap(apperr.InvalidDataFormat, "contract abi", err)
	}
	if err := os.WriteFile(b.pathFor(name), abiJSON, 0o600); err != nil {
		return apperr.Wrap(apperr.StorageError, "write contract abi", err)
	}
	return nil
}

// List returns the names of every stored contract ABI.
func (b *Backend) List() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageError, "read contracts dir", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	return out, nil
}

func (b *Backend) get(name string) (gethabi.ABI, error) {
	data, err := os.ReadFile(b.pathFor(name))
	if err != nil {
		return gethabi.ABI{}, apperr.Newf(apperr.NotFound, "no contract abi named %q", name)
	}
	parsed, err := gethabi.JSON(strings.NewReader(string(data)))
	if err != nil {
		return gethabi.ABI{}, apperr.Wrap(apperr.InvalidDataFormat, "stored contract abi", err)
	}
	return parsed, nil
}

// EncodeFunctionCall packs method(args...) per the named contract's ABI,
// for signer_encodeFunctionCall.
func (b *Backend) EncodeFunctionCall(name, method string, args ...interface{}) ([]byte, error) {
	parsed, err := b.get(name)
	if err != nil {
		return nil, err
	}
	packed, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, fmt.Sprintf("encode call to %s.%s", name, method), err)
	}
	return packed, nil
}

// EncodeAdHocCall packs values against an on-the-fly ABI built from types,
// for signer_encodeFunctionCall's "[value, {types,values}]" shape (spec
// §6) — unlike EncodeFunctionCall, it needs no previously-imported
// contract, only a type list supplied in the request itself.
func EncodeAdHocCall(functionName string, types []string, values []interface{}) ([]byte, error) {
	if len(types) != len(values) {
		return nil, apperr.Newf(apperr.InvalidDataFormat, "%d types but %d values", len(types), len(values))
	}

	args := make(gethabi.Arguments, len(types))
	converted := make([]interface{}, len(types))
	for i, t := range types {
		abiType, err := gethabi.NewType(t, "", nil)
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidDataFormat, fmt.Sprintf("abi type %q", t), err)
		}
		args[i] = gethabi.Argument{Type: abiType}
		v, err := convertValue(abiType, values[i])
		if err != nil {
			return nil, apperr.Wrap(apperr.InvalidDataFormat, fmt.Sprintf("argument %d for type %q", i, t), err)
		}
		converted[i] = v
	}

	packed, err := args.Pack(converted...)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidDataFormat, fmt.Sprintf("pack arguments for %q", functionName), err)
	}
	return packed, nil
}

// convertValue maps a JSON-decoded value (string/float64/bool/[]interface{})
// onto the Go type abi.Arguments.Pack expects for abiType.
func convertValue(abiType gethabi.Type, v interface{}) (interface{}, error) {
	switch abiType.T {
	case gethabi.AddressTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected address string, got %T", v)
		}
		return common.HexToAddress(s), nil
	case gethabi.BoolTy:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case gethabi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case gethabi.BytesTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected hex string for bytes, got %T", v)
		}
		b, err := decodeHex(s)
		if err != nil {
			return nil, err
		}
		return b, nil
	case gethabi.IntTy, gethabi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported abi type %s", abiType.String())
	}
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case float64:
		bi, _ := big.NewFloat(n).Int(nil)
		return bi, nil
	case string:
		out := new(big.Int)
		base := 10
		s := n
		if strings.HasPrefix(s, "0x") {
			base = 16
			s = s[2:]
		}
		if _, ok := out.SetString(s, base); !ok {
			return nil, fmt.Errorf("invalid integer literal %q", n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected numeric value, got %T", v)
	}
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}
