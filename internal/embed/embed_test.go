package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(384)
	v1, err := e.Embed(context.Background(), "neural networks are computational models")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "neural networks are computational models")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 384)
}

func TestEmbed_L2Normalized(t *testing.T) {
	e := NewLocalEmbedder(384)
	v, err := e.Embed(context.Background(), "some arbitrary passage of text")
	require.NoError(t, err)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-4)
}

func TestEmbed_RejectsEmpty(t *testing.T) {
	e := NewLocalEmbedder(384)
	_, err := e.Embed(context.Background(), "")
	assert.Error(t, err)
}

func TestEmbed_DistinctTextsDiffer(t *testing.T) {
	e := NewLocalEmbedder(384)
	v1, _ := e.Embed(context.Background(), "apples and oranges")
	v2, _ := e.Embed(context.Background(), "quantum computing hardware")
	assert.NotEqual(t, v1, v2)
}
