package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextShortInputIsSingleChunk(t *testing.T) {
	chunks := ChunkText("  Hello   world.\n\nSecond  line!  ", 1000)
	assert.Equal(t, []string{"Hello world. Second line!"}, chunks)
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, ChunkText(" \n\t ", 100))
}

func TestChunkTextRespectsBoundAndOrder(t *testing.T) {
	var sentences []string
	for i := 0; i < 60; i++ {
		sentences = append(sentences, "Sentence number "+strings.Repeat("x", i%7)+" ends here")
	}
	text := strings.Join(sentences, ". ") + "."

	chunks := ChunkText(text, 120)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 120)
		assert.True(t, strings.HasSuffix(c, "."))
	}

	// every sentence appears exactly once and in order
	joined := strings.Join(chunks, " ")
	pos := 0
	for _, s := range sentences {
		s = strings.Join(strings.Fields(s), " ")
		idx := strings.Index(joined[pos:], s+".")
		require.GreaterOrEqual(t, idx, 0, "missing %q", s)
		pos += idx + len(s)
	}
}

func TestChunkTextLongSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("a", 50)
	text := "Short one. " + long + ". Tail"

	chunks := ChunkText(text, 20)
	assert.Equal(t, []string{"Short one.", long + ".", "Tail."}, chunks)
}

func TestChunkTextMixedTerminators(t *testing.T) {
	text := strings.Repeat("Why? ", 3) + "Because!!! " + strings.Repeat("b", 30) + "..."
	chunks := ChunkText(text, 25)
	assert.Equal(t, []string{"Why. Why. Why. Because.", strings.Repeat("b", 30) + "."}, chunks)
}
