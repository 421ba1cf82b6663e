package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyText(t *testing.T) {
	assert.Nil(t, Split("", DefaultConfig()))
	assert.Nil(t, Split("   \n\n  ", DefaultConfig()))
}

func TestSplitShortTextSinglePiece(t *testing.T) {
	pieces := Split("One short sentence. And another.", DefaultConfig())
	require.Len(t, pieces, 1)
	assert.Equal(t, 0, pieces[0].Index)
	assert.Contains(t, pieces[0].Text, "One short sentence.")
}

func TestSplitRespectsTokenBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}
	cfg := Config{MaxTokens: 100, OverlapTokens: 10}

	pieces := Split(b.String(), cfg)

	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, p.Tokens, cfg.MaxTokens+cfg.OverlapTokens)
	}
}

func TestSplitIndexesAreSequential(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("Sentence number with several filler words inside it. ")
	}
	pieces := Split(b.String(), Config{MaxTokens: 60, OverlapTokens: 5})

	for i, p := range pieces {
		assert.Equal(t, i, p.Index)
	}
}

func TestSplitHugeSentenceIsSliced(t *testing.T) {
	// No sentence enders at all, longer than the budget.
	long := strings.Repeat("word ", 500)
	pieces := Split(long, Config{MaxTokens: 100})

	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.LessOrEqual(t, p.Tokens, 100)
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("Alpha beta gamma delta epsilon zeta eta theta. ")
	}
	pieces := Split(b.String(), Config{MaxTokens: 50, OverlapTokens: 15})

	require.Greater(t, len(pieces), 1)
	// The second piece starts with sentences repeated from the first.
	assert.True(t, strings.HasPrefix(pieces[1].Text, "Alpha beta gamma"))
}
