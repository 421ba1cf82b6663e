package workflow

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/agent"
	"ai-companion-be/pkg/agent/router"
	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/memory"
	"ai-companion-be/pkg/retrieval"
	"ai-companion-be/pkg/transcription"
)

// Stage names of the turn pipeline.
const (
	StageIntake     = "intake"
	StageTranscribe = "transcription"
	StageRoute      = "router"
	StageRetrieve   = "context_retrieval"
	StageMentor     = "agent_mentor"
	StageMuse       = "agent_muse"
	StageDiscussion = "agent_discussion"
	StageStorage    = "storage"
	StageFinalize   = "finalize"
)

const fallbackResponse = "I could not put together a proper answer this time. Could you try rephrasing, or ask me again in a moment?"

// Retriever is the slice of the retrieval engine the pipeline needs.
type Retriever interface {
	Search(ctx context.Context, q retrieval.Query) (*retrieval.Context, error)
}

// MemoryBuilder assembles the conversational memory for a turn.
type MemoryBuilder interface {
	Build(ctx context.Context, userID, conversationID uuid.UUID, query string) *memory.Snapshot
}

// Router picks the persona for a turn.
type Router interface {
	Route(ctx context.Context, query, mode, preferred string) router.Decision
}

// TurnRecord is what the storage stage hands to persistence.
type TurnRecord struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	UserText       string
	ResponseText   string
	Agents         []string
	TokensUsed     int
	Cost           float64
}

// ArtifactRecord is a note distilled from a turn.
type ArtifactRecord struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	Title          string
	Content        string
	Source         string
}

// TurnStore persists turn outcomes. Implemented by the history service.
type TurnStore interface {
	EnsureConversation(ctx context.Context, userID, conversationID uuid.UUID, firstInput string) (uuid.UUID, error)
	SaveTurn(ctx context.Context, rec TurnRecord) error
	CreateArtifact(ctx context.Context, rec ArtifactRecord) (uuid.UUID, error)
}

// Config carries the orchestrator tunables.
type Config struct {
	ShortInputRunes int
	RecentTurnLimit int
}

// Orchestrator owns the compiled turn pipeline. Stages mutate the RunState
// and degrade on failure; only an empty or unidentifiable intake halts a
// run early.
type Orchestrator struct {
	graph       *Graph
	transcriber transcription.Transcriber
	retriever   Retriever
	memories    MemoryBuilder
	routes      Router
	agents      map[string]agent.Processor
	store       TurnStore
	cfg         Config
	log         logger.ILogger
}

func NewOrchestrator(
	cfg Config,
	transcriber transcription.Transcriber,
	retriever Retriever,
	memories MemoryBuilder,
	routes Router,
	mentor, muse, discussion agent.Processor,
	store TurnStore,
	checkpoints CheckpointStore,
	progress Emitter,
	log logger.ILogger,
) (*Orchestrator, error) {
	if cfg.ShortInputRunes <= 0 {
		cfg.ShortInputRunes = 12
	}
	o := &Orchestrator{
		transcriber: transcriber,
		retriever:   retriever,
		memories:    memories,
		routes:      routes,
		agents: map[string]agent.Processor{
			router.RouteMentor:     mentor,
			router.RouteMuse:       muse,
			router.RouteDiscussion: discussion,
		},
		store: store,
		cfg:   cfg,
		log:   log,
	}

	graph, err := o.buildGraph(checkpoints, progress)
	if err != nil {
		return nil, err
	}
	o.graph = graph
	return o, nil
}

// buildGraph compiles the fixed stage graph once. Branching happens on
// conditional edges, never by mutating the graph.
func (o *Orchestrator) buildGraph(checkpoints CheckpointStore, progress Emitter) (*Graph, error) {
	agentStage := func(st *RunState) string {
		switch st.Route {
		case router.RouteMentor:
			return StageMentor
		case router.RouteMuse:
			return StageMuse
		default:
			return StageDiscussion
		}
	}

	return NewBuilder(o.log).
		AddStage(StageIntake, o.intake).
		AddStage(StageTranscribe, o.transcribe).
		AddStage(StageRoute, o.route).
		AddStage(StageRetrieve, o.retrieve).
		AddStage(StageMentor, o.runAgent(router.RouteMentor)).
		AddStage(StageMuse, o.runAgent(router.RouteMuse)).
		AddStage(StageDiscussion, o.runAgent(router.RouteDiscussion)).
		AddStage(StageStorage, o.storage).
		AddStage(StageFinalize, o.finalize).
		SetEntry(StageIntake).
		SetHalt(StageFinalize).
		WithCheckpoints(checkpoints).
		WithProgress(progress).
		AddConditionalEdge(StageIntake, func(st *RunState) string {
			if len(st.Audio) > 0 {
				return StageTranscribe
			}
			return StageRoute
		}).
		AddEdge(StageTranscribe, StageRoute).
		AddConditionalEdge(StageRoute, func(st *RunState) string {
			if o.skipRetrieval(st.Input) {
				return agentStage(st)
			}
			return StageRetrieve
		}).
		AddConditionalEdge(StageRetrieve, agentStage).
		AddEdge(StageMentor, StageStorage).
		AddEdge(StageMuse, StageStorage).
		AddEdge(StageDiscussion, StageStorage).
		AddEdge(StageStorage, StageFinalize).
		AddEdge(StageFinalize, End).
		Compile()
}

// Run executes one turn end to end.
func (o *Orchestrator) Run(ctx context.Context, st *RunState) *RunState {
	tracer := otel.Tracer("workflow")
	ctx, span := tracer.Start(ctx, "workflow.Run")
	defer span.End()

	out := o.graph.Run(ctx, st)

	span.SetAttributes(
		attribute.String("session_id", out.SessionID),
		attribute.String("status", string(out.Status)),
		attribute.Int("stage_count", len(out.Stages)),
	)
	return out
}

func (o *Orchestrator) intake(ctx context.Context, st *RunState) error {
	if strings.TrimSpace(st.Input) == "" && len(st.Audio) == 0 {
		st.Status = StatusFailed
		return fmt.Errorf("%w: %w", ErrHalt, errs.Validation("input", "a turn needs text or audio"))
	}

	convID, err := o.store.EnsureConversation(ctx, st.UserID, st.ConversationID, st.Input)
	if err != nil {
		if errs.IsValidation(err) {
			st.Status = StatusFailed
			return fmt.Errorf("%w: %w", ErrHalt, err)
		}
		// A storage outage must not cost the reply. Continue under a local
		// conversation id; persistence degrades in the storage stage.
		if st.ConversationID == uuid.Nil {
			st.ConversationID = uuid.New()
		}
		return fmt.Errorf("ensure conversation: %w", err)
	}
	st.ConversationID = convID
	return nil
}

func (o *Orchestrator) transcribe(ctx context.Context, st *RunState) error {
	if o.transcriber == nil {
		st.Status = StatusFailed
		return fmt.Errorf("%w: no transcriber configured for audio input", ErrHalt)
	}

	text, err := o.transcriber.Transcribe(ctx, st.Audio)
	if err != nil {
		if strings.TrimSpace(st.Input) == "" {
			st.Status = StatusFailed
			return fmt.Errorf("%w: transcription failed: %w", ErrHalt, err)
		}
		// The turn also carried text, continue with that.
		return fmt.Errorf("transcription failed, using provided text: %w", err)
	}

	st.Input = text
	st.Audio = nil
	return nil
}

func (o *Orchestrator) route(ctx context.Context, st *RunState) error {
	snap := o.memories.Build(ctx, st.UserID, st.ConversationID, st.Input)
	st.Memory = snap

	decision := o.routes.Route(ctx, st.Input, st.Mode, snap.Preferences.PreferredAgent)
	st.Route = decision.Route
	st.RouteReason = decision.Reason

	o.log.Debug("workflow", "routed turn", map[string]interface{}{
		"session_id": st.SessionID, "route": decision.Route, "reason": decision.Reason,
	})
	return nil
}

func (o *Orchestrator) retrieve(ctx context.Context, st *RunState) error {
	rc, err := o.retriever.Search(ctx, retrieval.Query{
		Text:   st.Input,
		UserID: st.UserID,
	})
	if err != nil {
		// The agents answer from memory alone.
		return fmt.Errorf("retrieval failed: %w", err)
	}
	st.Retrieval = rc
	return nil
}

func (o *Orchestrator) runAgent(route string) StageFunc {
	return func(ctx context.Context, st *RunState) error {
		p, ok := o.agents[route]
		if !ok || p == nil {
			return fmt.Errorf("no processor for route %q", route)
		}

		out, err := p.Process(ctx, agent.Input{
			Query:     st.Input,
			Memory:    st.Memory,
			Retrieval: st.Retrieval,
		})
		if err != nil {
			return fmt.Errorf("agent %s: %w", route, err)
		}

		st.Output = out
		st.Response = out.Text
		return nil
	}
}

// archiveKeywords is the deterministic half of the archive decision; the
// other half is the agent reporting an archive action.
var archiveKeywords = []string{
	"archive this",
	"save this",
	"note this down",
	"create a note",
	"remember this for later",
}

func shouldArchive(input string, out *agent.Output) bool {
	if out != nil {
		for _, a := range out.Actions {
			if a == agent.ActionArchive {
				return true
			}
		}
	}
	lower := strings.ToLower(input)
	for _, kw := range archiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) storage(ctx context.Context, st *RunState) error {
	// The work history keeps the user message even when every agent branch
	// failed; only the assistant half is conditional.
	rec := TurnRecord{
		ConversationID: st.ConversationID,
		UserID:         st.UserID,
		UserText:       st.Input,
	}
	if st.Output != nil {
		rec.ResponseText = st.Output.Text
		rec.Agents = agentsFor(st.Output)
		rec.TokensUsed = st.Output.TokensUsed
		rec.Cost = st.Output.Cost
	}
	if err := o.store.SaveTurn(ctx, rec); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	if st.Output == nil {
		return nil
	}

	if shouldArchive(st.Input, st.Output) {
		id, err := o.store.CreateArtifact(ctx, ArtifactRecord{
			ConversationID: st.ConversationID,
			UserID:         st.UserID,
			Title:          artifactTitle(st.Input),
			Content:        st.Output.Text,
			Source:         "agent_action",
		})
		if err != nil {
			return fmt.Errorf("create artifact: %w", err)
		}
		st.ArtifactID = id
	}
	return nil
}

// finalize guarantees the caller always receives a response, even when
// every earlier stage degraded. A failed run answers with a reply matching
// the error class instead of leaking provider internals.
func (o *Orchestrator) finalize(_ context.Context, st *RunState) error {
	if strings.TrimSpace(st.Response) == "" {
		if st.failure != nil {
			st.Response = errs.UserMessage(st.failure)
		} else {
			st.Response = fallbackResponse
		}
	}
	if st.Status != StatusFailed {
		st.Status = StatusCompleted
	}
	return nil
}

func (o *Orchestrator) skipRetrieval(input string) bool {
	trimmed := strings.TrimSpace(input)
	if utf8.RuneCountInString(trimmed) < o.cfg.ShortInputRunes {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, g := range []string{"hello", "hi ", "hey ", "thanks", "thank you", "good morning", "good night"} {
		if strings.HasPrefix(lower, g) {
			return true
		}
	}
	return false
}

func agentsFor(out *agent.Output) []string {
	if out.AgentID == agent.AgentDiscussion {
		return []string{agent.AgentMentor, agent.AgentMuse}
	}
	return []string{out.AgentID}
}

func artifactTitle(input string) string {
	title := strings.TrimSpace(input)
	if utf8.RuneCountInString(title) > 80 {
		runes := []rune(title)
		title = string(runes[:77]) + "..."
	}
	if title == "" {
		title = "Untitled note"
	}
	return title
}
