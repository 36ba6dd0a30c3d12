// Package typeddata implements EIP-712 structured-data hashing, per spec
// §3 (TypedData) and §4.5.
//
// Generalized from the teacher's internal/clob/eip712.go, which hard-codes
// a single "Order" type and its field list, into a type-table-driven
// encoder that accepts arbitrary types/primaryType/domain/message — the
// 32-byte left-padding of integers and addresses (pad32TwosComplement and
// the address case of encodeField) and the 0x19 0x01 digest assembly
// follow the teacher's helpers. Field-encoding edge
// cases (arrays, nested structs) are cross-checked against
// ethereum-go-ethereum/signer/core/signed_data.go (other_examples).
package typeddata

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/gipsh/emerald-signer/internal/apperr"
	"github.com/gipsh/emerald-signer/internal/primitives"
)

// Field is one entry in a type's field list: {name, type}.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is the EIP-712 input shape: a type table, the primary type
// name, the domain struct, and the message struct.
type TypedData struct {
	Types       map[string][]Field
	PrimaryType string
	Domain      map[string]interface{}
	Message     map[string]interface{}
}

const domainTypeName = "EIP712Domain"

// EncodeType renders "T(name1 type1,name2 type2,...)" followed by the same
// form for every referenced custom type, sorted ascending with the primary
// type first (spec §4.5).
func EncodeType(td TypedData, primaryType string) (string, error) {
	deps, err := collectDependencies(td, primaryType, map[string]bool{})
	if err != nil {
		return "", err
	}
	delete(deps, primaryType)
	sorted := make([]string, 0, len(deps))
	for t := range deps {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	ordered := append([]string{primaryType}, sorted...)

	var sb strings.Builder
	for _, t := range ordered {
		fields, ok := td.Types[t]
		if !ok {
			return "", apperr.Newf(apperr.TypedDataError, "unknown referenced type %q", t)
		}
		sb.WriteString(t)
		sb.WriteString("(")
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(f.Type)
			sb.WriteString(" ")
			sb.WriteString(f.Name)
		}
		sb.WriteString(")")
	}
	return sb.String(), nil
}

func baseTypeName(t string) string {
	return strings.TrimSuffix(t, "[]")
}

func isArrayType(t string) bool {
	return strings.HasSuffix(t, "[]")
}

func collectDependencies(td TypedData, t string, seen map[string]bool) (map[string]bool, error) {
	base := baseTypeName(t)
	if seen[base] {
		return seen, nil
	}
	fields, isCustom := td.Types[base]
	if !isCustom {
		return seen, nil
	}
	seen[base] = true
	for _, f := range fields {
		if _, err := collectDependencies(td, f.Type, seen); err != nil {
			return nil, err
		}
	}
	return seen, nil
}

// TypeHash computes keccak256(utf8(EncodeType(T))).
func TypeHash(td TypedData, primaryType string) (primitives.Hash, error) {
	enc, err := EncodeType(td, primaryType)
	if err != nil {
		return primitives.Hash{}, err
	}
	return primitives.Keccak256([]byte(enc)), nil
}

// EncodeData concatenates typeHash(T) with the per-field encodings of v
// (spec §4.5).
func EncodeData(td TypedData, typeName string, value map[string]interface{}) ([]byte, error) {
	th, err := TypeHash(td, typeName)
	if err != nil {
		return nil, err
	}
	fields, ok := td.Types[typeName]
	if !ok {
		return nil, apperr.Newf(apperr.TypedDataError, "unknown type %q", typeName)
	}

	out := make([]byte, 0, 32*(len(fields)+1))
	out = append(out, th[:]...)
	for _, f := range fields {
		enc, err := encodeField(td, f.Type, value[f.Name])
		if err != nil {
			return nil, apperr.Wrap(apperr.TypedDataError, fmt.Sprintf("field %q", f.Name), err)
		}
		out = append(out, enc...)
	}
	return out, nil
}

// HashStruct computes keccak256(encodeData(T, v)).
func HashStruct(td TypedData, typeName string, value map[string]interface{}) (primitives.Hash, error) {
	data, err := EncodeData(td, typeName, value)
	if err != nil {
		return primitives.Hash{}, err
	}
	return primitives.Keccak256(data), nil
}

// encodeField implements the per-field rules of spec §4.5.
func encodeField(td TypedData, fieldType string, value interface{}) ([]byte, error) {
	if isArrayType(fieldType) {
		elemType := baseTypeName(fieldType)
		items, ok := value.([]interface{})
		if !ok {
			if value == nil {
				return make([]byte, 32), nil
			}
			return nil, apperr.Newf(apperr.TypedDataError, "expected array for type %q", fieldType)
		}
		buf := make([]byte, 0, 32*len(items))
		for _, item := range items {
			enc, err := encodeField(td, elemType, item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, enc...)
		}
		h := primitives.Keccak256(buf)
		return h[:], nil
	}

	if _, isCustom := td.Types[fieldType]; isCustom {
		if value == nil {
			return make([]byte, 32), nil
		}
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, apperr.Newf(apperr.TypedDataError, "expected object for type %q", fieldType)
		}
		h, err := HashStruct(td, fieldType, m)
		if err != nil {
			return nil, err
		}
		return h[:], nil
	}

	switch {
	case fieldType == "string":
		s, _ := value.(string)
		h := primitives.Keccak256([]byte(s))
		return h[:], nil

	case fieldType == "bytes" || strings.HasPrefix(fieldType, "bytes"):
		b, err := bytesValue(value)
		if err != nil {
			return nil, err
		}
		if fieldType == "bytes" {
			h := primitives.Keccak256(b)
			return h[:], nil
		}
		// fixed-size bytesN: left-aligned, right-padded to 32 bytes.
		out := make([]byte, 32)
		copy(out, b)
		return out, nil

	case fieldType == "bool":
		out := make([]byte, 32)
		if bv, _ := value.(bool); bv {
			out[31] = 1
		}
		return out, nil

	case fieldType == "address":
		addr, err := addressValue(value)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 32)
		copy(out[12:], addr[:])
		return out, nil

	case strings.HasPrefix(fieldType, "uint") || strings.HasPrefix(fieldType, "int"):
		n, err := intValue(value)
		if err != nil {
			return nil, err
		}
		return pad32TwosComplement(n), nil

	default:
		return nil, apperr.Newf(apperr.TypedDataError, "unsupported field type %q", fieldType)
	}
}

func bytesValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		s := strings.TrimPrefix(v, "0x")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, apperr.Wrap(apperr.TypedDataError, "bytes field hex decode", err)
		}
		return b, nil
	case nil:
		return nil, nil
	default:
		return nil, apperr.Newf(apperr.TypedDataError, "expected hex string for bytes field, got %T", value)
	}
}

func addressValue(value interface{}) (primitives.Address, error) {
	s, ok := value.(string)
	if !ok {
		return primitives.Address{}, apperr.Newf(apperr.TypedDataError, "expected address string, got %T", value)
	}
	return primitives.HexToAddress(s)
}

func intValue(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case float64:
		bi, _ := big.NewFloat(v).Int(nil)
		return bi, nil
	case string:
		n := new(big.Int)
		base := 10
		s := v
		if strings.HasPrefix(s, "0x") {
			base = 16
			s = s[2:]
		}
		if _, ok := n.SetString(s, base); !ok {
			return nil, apperr.Newf(apperr.TypedDataError, "invalid integer literal %q", v)
		}
		return n, nil
	case int64:
		return big.NewInt(v), nil
	case *big.Int:
		return v, nil
	case nil:
		return big.NewInt(0), nil
	default:
		return nil, apperr.Newf(apperr.TypedDataError, "unsupported integer value type %T", value)
	}
}

// pad32TwosComplement renders n as a 32-byte big-endian two's-complement
// value (negative values per EIP-712 §"int" encoding).
func pad32TwosComplement(n *big.Int) []byte {
	out := make([]byte, 32)
	if n.Sign() >= 0 {
		b := n.Bytes()
		copy(out[32-len(b):], b)
		return out
	}
	// two's complement of |n| over 256 bits: (2^256 + n)
	mod := new(big.Int).Lsh(big.NewInt(1), 256)
	twos := new(big.Int).Add(mod, n)
	b := twos.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// Digest computes the final EIP-712 signing digest:
// keccak256(0x19 0x01 || hashStruct(EIP712Domain, domain) || hashStruct(primaryType, message)).
// If primaryType is EIP712Domain itself, the message hash is omitted (spec §4.5).
func Digest(td TypedData) (primitives.Hash, error) {
	domainTypes, ok := td.Types[domainTypeName]
	if !ok || len(domainTypes) == 0 {
		return primitives.Hash{}, apperr.New(apperr.TypedDataError, "missing EIP712Domain type")
	}
	domainHash, err := HashStruct(td, domainTypeName, td.Domain)
	if err != nil {
		return primitives.Hash{}, err
	}

	if td.PrimaryType == domainTypeName {
		buf := append([]byte{0x19, 0x01}, domainHash[:]...)
		return primitives.Keccak256(buf), nil
	}

	msgHash, err := HashStruct(td, td.PrimaryType, td.Message)
	if err != nil {
		return primitives.Hash{}, err
	}
	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, domainHash[:]...)
	buf = append(buf, msgHash[:]...)
	return primitives.Keccak256(buf), nil
}
