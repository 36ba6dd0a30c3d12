package randsrc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/randsrc"
)

func TestReaderProducesRandomBytes(t *testing.T) {
	require.NotNil(t, randsrc.Reader)

	a := make([]byte, 32)
	b := make([]byte, 32)
	_, err := randsrc.Reader.Read(a)
	require.NoError(t, err)
	_, err = randsrc.Reader.Read(b)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
