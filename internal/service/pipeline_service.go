package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/events"
	"ai-companion-be/pkg/workflow"
)

// EventPublisher is the slice of the NATS publisher the pipeline needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// TurnRunner executes one compiled pipeline run. Satisfied by the workflow
// orchestrator.
type TurnRunner interface {
	Run(ctx context.Context, st *workflow.RunState) *workflow.RunState
}

type IPipelineService interface {
	ProcessTurn(ctx context.Context, req *dto.TurnRequest) (*dto.TurnResponse, error)
}

// pipelineService fronts the workflow orchestrator: it validates intake,
// runs the graph, publishes the lifecycle events and shapes the response.
type pipelineService struct {
	orchestrator   TurnRunner
	eventPublisher EventPublisher
	validate       *validator.Validate
	log            logger.ILogger
}

func NewPipelineService(
	orchestrator TurnRunner,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IPipelineService {
	return &pipelineService{
		orchestrator:   orchestrator,
		eventPublisher: eventPublisher,
		validate:       validator.New(),
		log:            log,
	}
}

func (s *pipelineService) ProcessTurn(ctx context.Context, req *dto.TurnRequest) (*dto.TurnResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation("request", err.Error())
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Audio) == 0 {
		return nil, errs.Validation("text", "a turn needs text or audio")
	}
	if strings.TrimSpace(req.SessionId) == "" {
		req.SessionId = uuid.NewString()
	}

	s.publish(ctx, events.NewTurnAccepted(req.SessionId, req.ConversationId))

	st := workflow.NewRunState(req.SessionId, req.UserId, req.ConversationId, req.Text, req.Audio, req.Mode)
	st = s.orchestrator.Run(ctx, st)

	resp := &dto.TurnResponse{
		SessionId:      st.SessionID,
		ConversationId: st.ConversationID,
		Response:       st.Response,
		Status:         string(st.Status),
		Warnings:       st.Errors,
	}
	if st.Output != nil {
		resp.Agents = agentsInvolved(st)
		resp.TokensUsed = st.Output.TokensUsed
		resp.Cost = st.Output.Cost
	}
	if st.ArtifactID != uuid.Nil {
		id := st.ArtifactID
		resp.ArtifactId = &id
		s.publish(ctx, events.NewArtifactCreated(id, st.ConversationID, "agent_action"))
	}

	if st.Status == workflow.StatusFailed {
		s.publish(ctx, events.NewTurnFailed(st.SessionID, strings.Join(st.Errors, "; ")))
	} else {
		s.publish(ctx, events.NewTurnCompleted(st.SessionID, st.ConversationID, resp.Agents, resp.TokensUsed))
	}

	return resp, nil
}

// publish is fire-and-forget; a dead event bus must not fail a turn that
// already produced an answer.
func (s *pipelineService) publish(ctx context.Context, ev events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, ev); err != nil {
		s.log.Warn("pipeline", "event publish failed", map[string]interface{}{
			"event": ev.EventType(), "error": err.Error(),
		})
	}
}

func agentsInvolved(st *workflow.RunState) []string {
	if st.Output == nil {
		return nil
	}
	if st.Output.AgentID == "discussion" {
		return []string{"mentor", "muse"}
	}
	return []string{st.Output.AgentID}
}
