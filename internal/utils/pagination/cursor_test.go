package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token, err := Encode(Cursor{LastID: "user-42"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", decoded.LastID)
}

func TestDecodeEmptyTokenIsZeroCursor(t *testing.T) {
	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, decoded.LastID)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("!!not-base64!!")
	assert.Error(t, err)

	// valid base64 but not a cursor payload
	_, err = Decode("aGVsbG8gd29ybGQh")
	assert.Error(t, err)
}
