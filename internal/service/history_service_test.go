package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCrossReferences(t *testing.T) {
	content := "See [[Project Kickoff]] and [[budget 2026]] for context. Also [[Project Kickoff]] again."
	refs := ExtractCrossReferences(content)
	assert.Equal(t, []string{"Project Kickoff", "budget 2026"}, refs)
}

func TestExtractCrossReferencesNoneFound(t *testing.T) {
	assert.Empty(t, ExtractCrossReferences("plain text without links"))
	assert.Empty(t, ExtractCrossReferences("empty ref [[ ]] is ignored"))
}

func TestConversationTitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 100)
	title := conversationTitle(long)
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.LessOrEqual(t, len([]rune(title)), 60)

	assert.Equal(t, "New conversation", conversationTitle("   "))
	assert.Equal(t, "short question", conversationTitle("short question"))
}

func TestExcerptOfTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("x", 1000)
	got := excerptOf(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), maxExcerptRunes+3)

	assert.Equal(t, "short", excerptOf("short"))
}
