// Package apperr defines the signer's error taxonomy: one layered kind per
// module rather than a web of pairwise conversions between packages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the purposes of the RPC boundary. It is not
// a Go error type hierarchy — every apperr.Error carries exactly one Kind.
type Kind string

const (
	InvalidDataFormat   Kind = "invalid_data_format"
	UnsupportedVersion  Kind = "unsupported_version"
	UnsupportedCipher   Kind = "unsupported_cipher"
	UnsupportedKdf      Kind = "unsupported_kdf"
	UnsupportedPrf      Kind = "unsupported_prf"
	InvalidKdfDepth     Kind = "invalid_kdf_depth"
	FailedMacValidation Kind = "failed_mac_validation"
	NotFound            Kind = "not_found"
	StorageError        Kind = "storage_error"
	EcdsaCrypto         Kind = "ecdsa_crypto"
	TypedDataError      Kind = "typed_data_error"
	MnemonicError       Kind = "mnemonic_error"
)

// Error is the single error type every module in this repo returns. Wrap an
// underlying cause with Wrap; the cause is available via errors.Unwrap but
// is never rendered across the RPC boundary.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an underlying error, preserving it for logging
// but never for the RPC response.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error, and false
// otherwise — used by the RPC layer to decide invalid_params vs internal_error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is (or wraps) an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
