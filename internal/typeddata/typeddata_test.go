package typeddata_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gipsh/emerald-signer/internal/typeddata"
)

// mailTypedData builds the exact fixture from spec §8(e).
func mailTypedData() typeddata.TypedData {
	return typeddata.TypedData{
		Types: map[string][]typeddata.Field{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Person": {
				{Name: "name", Type: "string"},
				{Name: "wallet", Type: "address"},
			},
			"Mail": {
				{Name: "from", Type: "Person"},
				{Name: "to", Type: "Person"},
				{Name: "contents", Type: "string"},
			},
		},
		PrimaryType: "Mail",
		Domain: map[string]interface{}{
			"name":              "Ether Mail",
			"version":           "1",
			"chainId":           float64(1),
			"verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC",
		},
		Message: map[string]interface{}{
			"from": map[string]interface{}{
				"name":   "Cow",
				"wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826",
			},
			"to": map[string]interface{}{
				"name":   "Bob",
				"wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
			},
			"contents": "Hello, Bob!",
		},
	}
}

func TestEncodeTypeMail(t *testing.T) {
	td := mailTypedData()
	enc, err := typeddata.EncodeType(td, "Mail")
	require.NoError(t, err)
	assert.Equal(t,
		"Mail(Person from,Person to,string contents)Person(string name,address wallet)",
		enc)
}

func TestDigestMatchesFixture(t *testing.T) {
	td := mailTypedData()
	digest, err := typeddata.Digest(td)
	require.NoError(t, err)

	want := "vmCa7jQ/s8Syjh355jL8pk/Prt4g8C6GJE793zCVe9I="
	got := base64.StdEncoding.EncodeToString(digest[:])
	assert.Equal(t, want, got)
}

func TestDigestIsDeterministic(t *testing.T) {
	td := mailTypedData()
	d1, err := typeddata.Digest(td)
	require.NoError(t, err)
	d2, err := typeddata.Digest(td)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestDigestChangesWithMessage(t *testing.T) {
	td := mailTypedData()
	base, err := typeddata.Digest(td)
	require.NoError(t, err)

	td.Message["contents"] = "Hello, Alice!"
	changed, err := typeddata.Digest(td)
	require.NoError(t, err)
	assert.NotEqual(t, base, changed)
}

func TestEncodeTypeUnknownPrimaryType(t *testing.T) {
	td := mailTypedData()
	_, err := typeddata.EncodeType(td, "DoesNotExist")
	require.Error(t, err)
}
