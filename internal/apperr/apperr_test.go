package apperr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gipsh/emerald-signer/internal/apperr"
)

func TestKindOfAndIsKind(t *testing.T) {
	err := apperr.New(apperr.NotFound, "no such uuid")
	kind, ok := apperr.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, apperr.NotFound, kind)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.False(t, apperr.IsKind(err, apperr.StorageError))
}

func TestKindOfFalseForPlainError(t *testing.T) {
	_, ok := apperr.KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestWrapPreservesUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := apperr.Wrap(apperr.StorageError, "write keyfile", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, apperr.IsKind(err, apperr.StorageError))
	assert.Contains(t, err.Error(), "disk full")
}

func TestNewfFormatsMessage(t *testing.T) {
	err := apperr.Newf(apperr.InvalidDataFormat, "want %d bytes, got %d", 32, 16)
	assert.Contains(t, err.Error(), "want 32 bytes, got 16")
}

func TestKindOfUnwrapsThroughErrorsJoin(t *testing.T) {
	base := apperr.New(apperr.MnemonicError, "bad checksum")
	wrapped := errorsJoin(base)
	kind, ok := apperr.KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, apperr.MnemonicError, kind)
}

func errorsJoin(err error) error {
	return errors.Join(err)
}
