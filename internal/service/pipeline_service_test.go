package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/internal/dto"
	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/events"
	"ai-companion-be/pkg/workflow"
)

type stubRunner struct {
	got *workflow.RunState
}

func (s *stubRunner) Run(_ context.Context, st *workflow.RunState) *workflow.RunState {
	s.got = st
	st.Response = "runner reply"
	st.Status = workflow.StatusCompleted
	return st
}

type stubEventPublisher struct {
	published []events.Event
}

func (s *stubEventPublisher) Publish(_ context.Context, ev events.Event) error {
	s.published = append(s.published, ev)
	return nil
}

func TestProcessTurnAssignsSessionIdWhenAbsent(t *testing.T) {
	runner := &stubRunner{}
	svc := NewPipelineService(runner, nil, noopLogger{})

	resp, err := svc.ProcessTurn(context.Background(), &dto.TurnRequest{
		UserId: uuid.New(),
		Text:   "hello there",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionId)
	assert.Equal(t, resp.SessionId, runner.got.SessionID)
}

func TestProcessTurnKeepsProvidedSessionId(t *testing.T) {
	runner := &stubRunner{}
	svc := NewPipelineService(runner, nil, noopLogger{})

	resp, err := svc.ProcessTurn(context.Background(), &dto.TurnRequest{
		SessionId: "session-42",
		UserId:    uuid.New(),
		Text:      "hello there",
	})

	require.NoError(t, err)
	assert.Equal(t, "session-42", resp.SessionId)
}

func TestProcessTurnRejectsEmptyTurn(t *testing.T) {
	svc := NewPipelineService(&stubRunner{}, nil, noopLogger{})

	_, err := svc.ProcessTurn(context.Background(), &dto.TurnRequest{UserId: uuid.New()})

	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestProcessTurnCarriesModeIntoRun(t *testing.T) {
	runner := &stubRunner{}
	svc := NewPipelineService(runner, nil, noopLogger{})

	_, err := svc.ProcessTurn(context.Background(), &dto.TurnRequest{
		UserId: uuid.New(),
		Text:   "pick the muse for this one",
		Mode:   "muse",
	})

	require.NoError(t, err)
	assert.Equal(t, "muse", runner.got.Mode)
}

func TestProcessTurnPublishesLifecycleEvents(t *testing.T) {
	pub := &stubEventPublisher{}
	svc := NewPipelineService(&stubRunner{}, pub, noopLogger{})

	_, err := svc.ProcessTurn(context.Background(), &dto.TurnRequest{
		UserId: uuid.New(),
		Text:   "hello there",
	})

	require.NoError(t, err)
	require.Len(t, pub.published, 2)
	assert.Equal(t, events.TypeTurnAccepted, pub.published[0].EventType())
	assert.Equal(t, events.TypeTurnCompleted, pub.published[1].EventType())
}
