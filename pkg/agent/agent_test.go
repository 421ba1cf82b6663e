package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/llm"
	"ai-companion-be/pkg/memory"
	"ai-companion-be/pkg/retrieval"
)

type stubProvider struct {
	result  *llm.Result
	err     error
	calls   int
	lastMsg []llm.Message
}

func (s *stubProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (*llm.Result, error) {
	s.calls++
	s.lastMsg = history
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubProvider) Generate(_ context.Context, prompt string, _ ...llm.Option) (*llm.Result, error) {
	s.calls++
	s.lastMsg = []llm.Message{{Role: "user", Content: prompt}}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestMentorBuildsFullHistory(t *testing.T) {
	p := &stubProvider{result: &llm.Result{Text: "structured answer", TokensUsed: 42, Cost: 0.001}}
	m := NewMentor(p)

	out, err := m.Process(context.Background(), Input{
		Query: "how should I plan this week?",
		Memory: &memory.Snapshot{
			Recent: []memory.Turn{{Role: "user", Content: "earlier question"}},
			Past:   []memory.PastReference{{Content: "planning works best in the morning"}},
		},
		Retrieval: &retrieval.Context{
			Results: []retrieval.ScoredDocument{{Title: "Weekly review", Excerpt: "template", Origin: retrieval.SourceVector}},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, AgentMentor, out.AgentID)
	assert.Equal(t, "structured answer", out.Text)
	assert.Equal(t, 42, out.TokensUsed)

	// system prompt, past refs, retrieved docs, one recent turn, the query
	require.Len(t, p.lastMsg, 5)
	assert.Equal(t, "system", p.lastMsg[0].Role)
	assert.Equal(t, "user", p.lastMsg[len(p.lastMsg)-1].Role)
	assert.Equal(t, "how should I plan this week?", p.lastMsg[len(p.lastMsg)-1].Content)
}

func TestParseActionsStripsTags(t *testing.T) {
	text, actions := parseActions("Saved it for you.\n<action>archive</action>")
	assert.Equal(t, "Saved it for you.", text)
	assert.Equal(t, []string{"archive"}, actions)

	text, actions = parseActions("No tags here.")
	assert.Equal(t, "No tags here.", text)
	assert.Nil(t, actions)
}

func TestDiscussionSynthesizesBothTakes(t *testing.T) {
	mentor := &stubProvider{result: &llm.Result{Text: "mentor take", TokensUsed: 10, Cost: 0.1}}
	muse := &stubProvider{result: &llm.Result{Text: "muse take", TokensUsed: 20, Cost: 0.2}}
	synth := &stubProvider{result: &llm.Result{Text: "combined view", TokensUsed: 5, Cost: 0.05}}

	d := NewDiscussion(NewMentor(mentor), NewMuse(muse), synth)
	out, err := d.Process(context.Background(), Input{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, AgentDiscussion, out.AgentID)
	assert.Equal(t, "combined view", out.Text)
	assert.Equal(t, 35, out.TokensUsed)
	assert.InDelta(t, 0.35, out.Cost, 1e-9)
}

func TestDiscussionSurvivesOnePersonaFailure(t *testing.T) {
	mentor := &stubProvider{err: errs.ProviderTransient("llm", errors.New("rate limited"))}
	muse := &stubProvider{result: &llm.Result{Text: "muse alone", TokensUsed: 20}}

	d := NewDiscussion(NewMentor(mentor), NewMuse(muse), &stubProvider{})
	out, err := d.Process(context.Background(), Input{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, AgentDiscussion, out.AgentID)
	assert.Equal(t, "muse alone", out.Text)
}

func TestDiscussionBothPersonasFailing(t *testing.T) {
	boom := errs.ProviderTransient("llm", errors.New("down"))
	d := NewDiscussion(NewMentor(&stubProvider{err: boom}), NewMuse(&stubProvider{err: boom}), &stubProvider{})

	_, err := d.Process(context.Background(), Input{Query: "q"})
	require.Error(t, err)
}

func TestDiscussionSynthesisFailureFallsBackToJoin(t *testing.T) {
	mentor := &stubProvider{result: &llm.Result{Text: "mentor take"}}
	muse := &stubProvider{result: &llm.Result{Text: "muse take"}}
	synth := &stubProvider{err: errs.ProviderTransient("llm", errors.New("down"))}

	d := NewDiscussion(NewMentor(mentor), NewMuse(muse), synth)
	out, err := d.Process(context.Background(), Input{Query: "q"})

	require.NoError(t, err)
	assert.Contains(t, out.Text, "mentor take")
	assert.Contains(t, out.Text, "muse take")
}

type flakyProcessor struct {
	failures int
	calls    int
}

func (f *flakyProcessor) ID() string { return "flaky" }

func (f *flakyProcessor) Process(context.Context, Input) (*Output, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errs.ProviderTransient("llm", errors.New("overloaded"))
	}
	return &Output{AgentID: "flaky", Text: "recovered"}, nil
}

func TestRetryingRecoversFromTransientFailures(t *testing.T) {
	inner := &flakyProcessor{failures: 2}
	out, err := NewRetrying(inner).Process(context.Background(), Input{Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingGivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyProcessor{failures: 10}
	_, err := NewRetrying(inner).Process(context.Background(), Input{Query: "q"})

	require.Error(t, err)
	assert.Equal(t, maxAttempts, inner.calls)
}

type timeoutProcessor struct{ calls int }

func (p *timeoutProcessor) ID() string { return "slow" }

func (p *timeoutProcessor) Process(context.Context, Input) (*Output, error) {
	p.calls++
	return nil, errs.ProviderTimeout("llm", errors.New("deadline exceeded"))
}

func TestRetryingDoesNotRetryTimeouts(t *testing.T) {
	inner := &timeoutProcessor{}
	_, err := NewRetrying(inner).Process(context.Background(), Input{Query: "q"})

	require.Error(t, err)
	assert.True(t, errs.IsTimeout(err))
	assert.Equal(t, 1, inner.calls)
}

type permanentProcessor struct{ calls int }

func (p *permanentProcessor) ID() string { return "perm" }

func (p *permanentProcessor) Process(context.Context, Input) (*Output, error) {
	p.calls++
	return nil, errs.Validation("query", "empty")
}

func TestRetryingDoesNotRetryPermanentErrors(t *testing.T) {
	inner := &permanentProcessor{}
	_, err := NewRetrying(inner).Process(context.Background(), Input{Query: ""})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
