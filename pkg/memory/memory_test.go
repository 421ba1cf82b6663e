package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/internal/entity"
	"ai-companion-be/pkg/embedding"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubMessages struct {
	recent    []Turn
	recentErr error
	past      []PastReference
	pastErr   error
}

func (s *stubMessages) RecentTurns(context.Context, uuid.UUID, int) ([]Turn, error) {
	return s.recent, s.recentErr
}

func (s *stubMessages) SimilarPast(context.Context, []float32, uuid.UUID, uuid.UUID, int, time.Duration) ([]PastReference, error) {
	return s.past, s.pastErr
}

type stubPrefs struct {
	pref *entity.UserPreference
	err  error
}

func (s *stubPrefs) PreferencesFor(context.Context, uuid.UUID) (*entity.UserPreference, error) {
	return s.pref, s.err
}

type stubEmbedder struct {
	err      error
	lastText string
}

func (s *stubEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.Response, error) {
	s.lastText = text
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.Response{Values: []float32{0.5}}, nil
}

func TestBuildAssemblesAllSections(t *testing.T) {
	userID := uuid.New()
	msgs := &stubMessages{
		recent: []Turn{{Role: "user", Content: "hello"}},
		past:   []PastReference{{Content: "we discussed budgets", Similarity: 0.8}},
	}
	prefs := &stubPrefs{pref: &entity.UserPreference{UserId: userID, PreferredAgent: "mentor"}}

	b := NewBuilder(msgs, prefs, &stubEmbedder{}, 10, 0, noopLogger{})
	snap := b.Build(context.Background(), userID, uuid.New(), "budgets")

	require.NotNil(t, snap)
	assert.Len(t, snap.Recent, 1)
	assert.Len(t, snap.Past, 1)
	assert.Equal(t, "mentor", snap.Preferences.PreferredAgent)
}

func TestBuildDegradesWhenHistoryFails(t *testing.T) {
	msgs := &stubMessages{recentErr: errors.New("db down"), pastErr: errors.New("db down")}
	prefs := &stubPrefs{err: errors.New("db down")}

	b := NewBuilder(msgs, prefs, &stubEmbedder{}, 10, 0, noopLogger{})
	snap := b.Build(context.Background(), uuid.New(), uuid.New(), "anything")

	require.NotNil(t, snap)
	assert.Empty(t, snap.Recent)
	assert.Empty(t, snap.Past)
	assert.Equal(t, entity.PreferredAgentAuto, snap.Preferences.PreferredAgent)
}

func TestBuildSkipsRecallWhenEmbeddingFails(t *testing.T) {
	msgs := &stubMessages{
		recent: []Turn{{Role: "user", Content: "hi"}},
		past:   []PastReference{{Content: "should not appear"}},
	}

	b := NewBuilder(msgs, &stubPrefs{}, &stubEmbedder{err: errors.New("provider down")}, 10, 0, noopLogger{})
	snap := b.Build(context.Background(), uuid.New(), uuid.New(), "query")

	assert.Len(t, snap.Recent, 1)
	assert.Empty(t, snap.Past)
}

func TestBuildProbeSpansRecentUserTurns(t *testing.T) {
	msgs := &stubMessages{
		recent: []Turn{
			{Role: "user", Content: "I want to plan a sabbatical"},
			{Role: "assistant", Content: "A sabbatical sounds great"},
			{Role: "user", Content: "maybe six months in Lisbon"},
		},
	}
	emb := &stubEmbedder{}

	b := NewBuilder(msgs, &stubPrefs{}, emb, 10, 0, noopLogger{})
	b.Build(context.Background(), uuid.New(), uuid.New(), "what about the budget?")

	assert.Contains(t, emb.lastText, "plan a sabbatical")
	assert.Contains(t, emb.lastText, "six months in Lisbon")
	assert.Contains(t, emb.lastText, "what about the budget?")
	assert.NotContains(t, emb.lastText, "sounds great")
}

func TestBuildDerivesTopicSummary(t *testing.T) {
	msgs := &stubMessages{
		recent: []Turn{
			{Role: "user", Content: "my sabbatical budget worries me"},
			{Role: "user", Content: "the sabbatical savings plan"},
		},
	}

	b := NewBuilder(msgs, &stubPrefs{}, &stubEmbedder{}, 10, 0, noopLogger{})
	snap := b.Build(context.Background(), uuid.New(), uuid.New(), "how big a sabbatical fund do I need?")

	require.NotEmpty(t, snap.Topic)
	terms := strings.Split(snap.Topic, ", ")
	assert.Equal(t, "sabbatical", terms[0])
	assert.NotContains(t, terms, "the")
}

func TestBuildMissingPreferencesUsesDefaults(t *testing.T) {
	userID := uuid.New()
	b := NewBuilder(&stubMessages{}, &stubPrefs{pref: nil}, &stubEmbedder{}, 10, 0, noopLogger{})
	snap := b.Build(context.Background(), userID, uuid.New(), "")

	assert.Equal(t, entity.PreferredAgentAuto, snap.Preferences.PreferredAgent)
	assert.Equal(t, userID, snap.Preferences.UserId)
}
