package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/pkg/cache"
	"ai-companion-be/pkg/embedding"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Generate(_ context.Context, _ string, _ string) (*embedding.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &embedding.Response{Values: []float32{0.1, 0.2, 0.3}, Tokens: 3}, nil
}

type stubSearcher struct {
	docs  []ScoredDocument
	err   error
	calls int
}

func (s *stubSearcher) SearchVector(context.Context, []float32, uuid.UUID, int, float64) ([]ScoredDocument, error) {
	s.calls++
	return s.docs, s.err
}

func (s *stubSearcher) SearchFullText(context.Context, string, uuid.UUID, int) ([]ScoredDocument, error) {
	s.calls++
	return s.docs, s.err
}

func (s *stubSearcher) SearchGraph(context.Context, []string, uuid.UUID, int) ([]ScoredDocument, error) {
	s.calls++
	return s.docs, s.err
}

func (s *stubSearcher) SearchWeb(context.Context, string, int) ([]ScoredDocument, error) {
	s.calls++
	return s.docs, s.err
}

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, bool) {
	v, ok := m.data[key]
	return v, ok
}
func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) { m.data[key] = value }
func (m *memStore) Delete(_ context.Context, key string)                      { delete(m.data, key) }
func (m *memStore) Clear(_ context.Context, _ string)                         { m.data = map[string]string{} }

var _ cache.Store = (*memStore)(nil)

func newTestEngine(vec, ft, graph, web *stubSearcher, store cache.Store) *Engine {
	var (
		v VectorSearcher
		f FullTextSearcher
		g GraphSearcher
		w WebSearcher
	)
	if vec != nil {
		v = vec
	}
	if ft != nil {
		f = ft
	}
	if graph != nil {
		g = graph
	}
	if web != nil {
		w = web
	}
	return NewEngine(
		EngineConfig{Strategy: StrategyFixed, SubSearchTimeout: time.Second, TokenBudget: 0},
		&stubEmbedder{},
		v, f, g, w,
		store,
		NewParams(DefaultFusionParams()),
		noopLogger{},
	)
}

func TestSearchFusesAllSources(t *testing.T) {
	vec := &stubSearcher{docs: []ScoredDocument{{SourceID: "v1", Origin: SourceVector, RawScore: 0.9}}}
	ft := &stubSearcher{docs: []ScoredDocument{{SourceID: "f1", Origin: SourceFullText, RawScore: 0.7}}}
	graph := &stubSearcher{docs: []ScoredDocument{{SourceID: "g1", Origin: SourceGraph, RawScore: 0.5}}}

	e := newTestEngine(vec, ft, graph, nil, nil)
	rc, err := e.Search(context.Background(), Query{Text: "project status"})

	require.NoError(t, err)
	assert.Len(t, rc.Results, 3)
	assert.Equal(t, 3, rc.TotalCandidates)
	assert.Greater(t, rc.Confidence, 0.0)
	assert.Equal(t, "v1", rc.Results[0].SourceID)
}

func TestSearchAllSubSearchesFailReturnsEmptyNotError(t *testing.T) {
	boom := errors.New("backend down")
	vec := &stubSearcher{err: boom}
	ft := &stubSearcher{err: boom}
	graph := &stubSearcher{err: boom}

	e := newTestEngine(vec, ft, graph, nil, nil)
	rc, err := e.Search(context.Background(), Query{Text: "anything"})

	require.NoError(t, err)
	assert.Empty(t, rc.Results)
	assert.Equal(t, 0.0, rc.Confidence)
}

func TestSearchPartialFailureKeepsSurvivors(t *testing.T) {
	vec := &stubSearcher{err: errors.New("pgvector down")}
	ft := &stubSearcher{docs: []ScoredDocument{{SourceID: "f1", Origin: SourceFullText, RawScore: 0.8}}}

	e := newTestEngine(vec, ft, nil, nil, nil)
	rc, err := e.Search(context.Background(), Query{Text: "notes"})

	require.NoError(t, err)
	require.Len(t, rc.Results, 1)
	assert.Equal(t, "f1", rc.Results[0].SourceID)
}

func TestSearchSourceFilter(t *testing.T) {
	vec := &stubSearcher{docs: []ScoredDocument{{SourceID: "v1", Origin: SourceVector, RawScore: 0.9}}}
	ft := &stubSearcher{docs: []ScoredDocument{{SourceID: "f1", Origin: SourceFullText, RawScore: 0.8}}}

	e := newTestEngine(vec, ft, nil, nil, nil)
	rc, err := e.Search(context.Background(), Query{Text: "notes", Sources: []SourceType{SourceFullText}})

	require.NoError(t, err)
	require.Len(t, rc.Results, 1)
	assert.Equal(t, "f1", rc.Results[0].SourceID)
	assert.Zero(t, vec.calls)
}

func TestSearchCachesWholeContext(t *testing.T) {
	vec := &stubSearcher{docs: []ScoredDocument{{SourceID: "v1", Origin: SourceVector, RawScore: 0.9}}}
	store := newMemStore()

	e := newTestEngine(vec, nil, nil, nil, store)
	first, err := e.Search(context.Background(), Query{Text: "cached query"})
	require.NoError(t, err)

	second, err := e.Search(context.Background(), Query{Text: "cached query"})
	require.NoError(t, err)

	assert.Equal(t, 1, vec.calls)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestSearchAdaptiveSkipsWebWhenConfident(t *testing.T) {
	strong := []ScoredDocument{
		{SourceID: "v1", Origin: SourceVector, RawScore: 0.95, Title: "refund policy", Excerpt: "refund policy details"},
		{SourceID: "v2", Origin: SourceVector, RawScore: 0.90, Title: "refund policy notes", Excerpt: "more refund policy"},
	}
	vec := &stubSearcher{docs: strong}
	ft := &stubSearcher{docs: strong}
	graph := &stubSearcher{docs: strong}
	web := &stubSearcher{docs: []ScoredDocument{{SourceID: "w1", Origin: SourceWeb, RawScore: 0.5}}}

	e := NewEngine(
		EngineConfig{Strategy: StrategyAdaptive, SubSearchTimeout: time.Second},
		&stubEmbedder{},
		vec, ft, graph, web,
		nil,
		NewParams(DefaultFusionParams()),
		noopLogger{},
	)

	rc, err := e.Search(context.Background(), Query{Text: "refund policy"})
	require.NoError(t, err)
	assert.Zero(t, web.calls)
	assert.NotEmpty(t, rc.Results)
}

func TestSearchAdaptiveFallsBackToWebWhenWeak(t *testing.T) {
	web := &stubSearcher{docs: []ScoredDocument{{SourceID: "w1", Origin: SourceWeb, RawScore: 0.9, RetrievedAt: time.Now()}}}

	e := NewEngine(
		EngineConfig{Strategy: StrategyAdaptive, SubSearchTimeout: time.Second},
		&stubEmbedder{},
		&stubSearcher{}, &stubSearcher{}, &stubSearcher{}, web,
		nil,
		NewParams(DefaultFusionParams()),
		noopLogger{},
	)

	rc, err := e.Search(context.Background(), Query{Text: "latest framework release"})
	require.NoError(t, err)
	assert.Equal(t, 1, web.calls)
	require.NotEmpty(t, rc.Results)
	assert.Equal(t, "w1", rc.Results[0].SourceID)
}

func TestSearchEmbeddingFailureSkipsVectorOnly(t *testing.T) {
	vec := &stubSearcher{docs: []ScoredDocument{{SourceID: "v1", Origin: SourceVector, RawScore: 0.9}}}
	ft := &stubSearcher{docs: []ScoredDocument{{SourceID: "f1", Origin: SourceFullText, RawScore: 0.8}}}

	e := NewEngine(
		EngineConfig{Strategy: StrategyFixed, SubSearchTimeout: time.Second},
		&stubEmbedder{err: errors.New("provider down")},
		vec, ft, nil, nil,
		nil,
		NewParams(DefaultFusionParams()),
		noopLogger{},
	)

	rc, err := e.Search(context.Background(), Query{Text: "notes"})
	require.NoError(t, err)
	assert.Zero(t, vec.calls)
	require.Len(t, rc.Results, 1)
	assert.Equal(t, "f1", rc.Results[0].SourceID)
}

func TestFitToBudgetTruncatesFirstOverflow(t *testing.T) {
	long := ""
	for i := 0; i < 400; i++ {
		long += "word "
	}
	ranked := []ScoredDocument{
		{SourceID: "a", Excerpt: long},
		{SourceID: "b", Excerpt: long},
	}

	out := fitToBudget(ranked, 100)

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].SourceID)
	assert.LessOrEqual(t, CountTokens(out[0].Excerpt), 100)
	assert.NotEmpty(t, out[0].Excerpt)
}

func TestFitToBudgetKeepsEverythingUnderBudget(t *testing.T) {
	ranked := []ScoredDocument{
		{SourceID: "a", Excerpt: "short one"},
		{SourceID: "b", Excerpt: "short two"},
	}

	out := fitToBudget(ranked, 1000)
	assert.Len(t, out, 2)
	assert.Equal(t, "short one", out[0].Excerpt)
}
