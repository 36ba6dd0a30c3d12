package rpc

import (
	"github.com/gipsh/emerald-signer/internal/apperr"
)

// jsonrpcError is the JSON-RPC 2.0 error object.
type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeInvalidParams = -32602
	codeInternalError = -32603
)

// invalidParamsKinds are the apperr.Kind values spec §7 classifies as
// caller mistakes: malformed input, known-bad shapes, wrong passphrase, or
// a missing record. Everything else (StorageError, EcdsaCrypto, and any
// unrecognized error) maps to internal_error so filesystem paths and
// cryptographic internals never cross the RPC boundary.
var invalidParamsKinds = map[apperr.Kind]bool{
	apperr.InvalidDataFormat:   true,
	apperr.UnsupportedVersion:  true,
	apperr.UnsupportedCipher:   true,
	apperr.UnsupportedKdf:      true,
	apperr.UnsupportedPrf:      true,
	apperr.InvalidKdfDepth:     true,
	apperr.FailedMacValidation: true,
	apperr.NotFound:            true,
	apperr.TypedDataError:      true,
	apperr.MnemonicError:       true,
}

// toJSONRPCError implements the spec §7 mapping policy.
func toJSONRPCError(err error) jsonrpcError {
	kind, ok := apperr.KindOf(err)
	if ok && invalidParamsKinds[kind] {
		return jsonrpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	return jsonrpcError{Code: codeInternalError, Message: "internal error"}
}
