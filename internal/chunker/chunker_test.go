package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyInput(t *testing.T) {
	for _, s := range []Strategy{StrategySentence, StrategyParagraph, StrategyFixed} {
		chunks, err := Chunk("   \n\t  ", Options{Strategy: s, Size: 100, Overlap: 10})
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunk_UnknownStrategy(t *testing.T) {
	_, err := Chunk("hello world", Options{Strategy: "bogus", Size: 100, Overlap: 10})
	assert.Error(t, err)
}

func TestOptions_Validate_OverlapBoundary(t *testing.T) {
	assert.Error(t, Options{Strategy: StrategyFixed, Size: 100, Overlap: 100}.Validate())
	assert.Error(t, Options{Strategy: StrategyFixed, Size: 100, Overlap: 150}.Validate())
	assert.NoError(t, Options{Strategy: StrategyFixed, Size: 100, Overlap: 99}.Validate())
}

func TestChunk_Fixed_SlidesWindow(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks, err := Chunk(text, Options{Strategy: StrategyFixed, Size: 100, Overlap: 20})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
	// the first window is exactly chunk_size characters long
	assert.Equal(t, strings.Repeat("a", 100), chunks[0])
}

func TestChunk_Sentence_PacksAndOverlaps(t *testing.T) {
	text := "Neural networks are computational models. They are inspired by biological neurons. " +
		"Training adjusts weights via gradient descent. Overfitting is a common failure mode."
	chunks, err := Chunk(text, Options{Strategy: StrategySentence, Size: 60, Overlap: 20})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 60+20) // at most one boundary unit over
	}
}

func TestChunk_Paragraph_SeedsOnlyIfShortEnough(t *testing.T) {
	text := "Short para one.\n\nShort para two.\n\n" + strings.Repeat("x", 500)
	chunks, err := Chunk(text, Options{Strategy: StrategyParagraph, Size: 40, Overlap: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(chunks), 2)
}

func TestChunk_RoundTrip_NonWhitespaceContentPreserved(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks, err := Chunk(text, Options{Strategy: StrategyFixed, Size: 15, Overlap: 5})
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, c := range chunks {
		rebuilt.WriteString(c)
	}
	// every character of the source appears somewhere in the chunk stream
	for _, r := range strings.ReplaceAll(text, " ", "") {
		assert.Contains(t, rebuilt.String(), string(r))
	}
}
