package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{"repository_id": "repo-1", "last_key": "am9iOjEyMw"}

	encoded, err := EncodeCursor(original)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestCursorEmpty(t *testing.T) {
	encoded, err := EncodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, encoded)

	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeCursor_Malformed(t *testing.T) {
	cases := []string{
		"not-base64!!!",
		"bm90LWpzb24=", // base64("not-json")
		"e30=",         // base64("{}"), empty payload
		"WyJhIiwiYiJd", // base64(`["a","b"]`), wrong JSON shape
	}
	for _, encoded := range cases {
		_, err := DecodeCursor(encoded)
		require.Error(t, err, "input %q", encoded)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	}
}
