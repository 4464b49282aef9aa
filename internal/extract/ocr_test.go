package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsOCR_Forced(t *testing.T) {
	assert.True(t, NeedsOCR(strings.Repeat("a", 500), true))
}

func TestNeedsOCR_ShortText(t *testing.T) {
	assert.True(t, NeedsOCR("too short", false))
}

func TestNeedsOCR_LowAlnumRatio(t *testing.T) {
	noisy := strings.Repeat("#$%^&*()_+-=[]{}", 20)
	assert.True(t, NeedsOCR(noisy, false))
}

func TestNeedsOCR_GoodText(t *testing.T) {
	good := strings.Repeat("the quick brown fox jumps over the lazy dog ", 10)
	assert.False(t, NeedsOCR(good, false))
}

func TestAlnumRatio_AllAlnum(t *testing.T) {
	assert.Equal(t, 1.0, alnumRatio("abc123"))
}

func TestAlnumRatio_Empty(t *testing.T) {
	assert.Equal(t, 0.0, alnumRatio(""))
}

func TestNeedsOCR_LengthBoundary99TriggersOCR(t *testing.T) {
	assert.True(t, NeedsOCR(strings.Repeat("a", 99), false))
}

func TestNeedsOCR_Length100WithRatio70DoesNotTrigger(t *testing.T) {
	text := strings.Repeat("a", 70) + strings.Repeat("#", 30)
	require.Len(t, strings.TrimSpace(text), 100)
	assert.InDelta(t, 0.7, alnumRatio(strings.TrimSpace(text)), 1e-9)
	assert.False(t, NeedsOCR(text, false))
}

func TestNeedsOCR_Length100WithRatioJustBelow70Triggers(t *testing.T) {
	text := strings.Repeat("a", 69) + strings.Repeat("#", 31)
	trimmed := strings.TrimSpace(text)
	require.Len(t, trimmed, 100)
	assert.Less(t, alnumRatio(trimmed), 0.7)
	assert.True(t, NeedsOCR(text, false))
}

func TestAlnumRatio_WhitespaceCountsTowardRatio(t *testing.T) {
	// 58 letters + 15 spaces + 27 symbols: (58+15)/100 = 0.73
	text := strings.Repeat("a", 58) + strings.Repeat(" ", 15) + strings.Repeat("#", 27)
	assert.InDelta(t, 0.73, alnumRatio(text), 1e-9)
	assert.False(t, NeedsOCR(text, false))
}
