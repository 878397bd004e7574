package chunk

import (
	"strings"
	"testing"

	"github.com/poiesic/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("", core.FixedStrategy(100, 10))
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_SingleChunk(t *testing.T) {
	chunks, err := Split("short text", core.FixedStrategy(100, 10))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplit_Overlap(t *testing.T) {
	text := "abcdefghij" // 10 chars
	chunks, err := Split(text, core.FixedStrategy(4, 2))
	require.NoError(t, err)

	// step = 2: abcd, cdef, efgh, ghij
	assert.Equal(t, []string{"abcd", "cdef", "efgh", "ghij"}, chunks)
}

func TestSplit_TrailingShortChunk(t *testing.T) {
	text := strings.Repeat("x", 11)
	chunks, err := Split(text, core.FixedStrategy(5, 0))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, len(chunks[2]))
}

func TestSplit_CoversAllText(t *testing.T) {
	text := strings.Repeat("abcdefghij", 137)
	chunks, err := Split(text, core.FixedStrategy(30, 7))
	require.NoError(t, err)

	// Reassemble by stripping the overlap from every chunk after the first.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[7:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplit_InvalidStrategy(t *testing.T) {
	_, err := Split("text", core.FixedStrategy(10, 10))
	assert.ErrorIs(t, err, core.ErrInvalidStrategy)
}
