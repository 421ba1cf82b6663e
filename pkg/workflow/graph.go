package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-companion-be/internal/pkg/logger"
)

// End terminates the run when an edge resolves to it.
const End = "end"

// ErrHalt makes the graph jump to the halt stage instead of following the
// stage's edge. Stages return it wrapped around the underlying cause.
var ErrHalt = errors.New("halt pipeline")

// StageFunc mutates the run state. A returned error is recorded on the
// state and the run continues; wrap it in ErrHalt to short-circuit to the
// halt stage.
type StageFunc func(ctx context.Context, st *RunState) error

// EdgeFunc resolves the next stage from the state after a stage ran.
type EdgeFunc func(st *RunState) string

// Graph is a compiled, immutable stage graph. Compile once at startup; Run
// is safe for concurrent use because all mutable state lives in RunState.
type Graph struct {
	entry       string
	haltTo      string
	stages      map[string]StageFunc
	edges       map[string]EdgeFunc
	checkpoints CheckpointStore
	progress    Emitter
	log         logger.ILogger
}

// Builder accumulates stages and edges until Compile.
type Builder struct {
	entry       string
	haltTo      string
	stages      map[string]StageFunc
	edges       map[string]EdgeFunc
	checkpoints CheckpointStore
	progress    Emitter
	log         logger.ILogger
}

func NewBuilder(log logger.ILogger) *Builder {
	return &Builder{
		stages: map[string]StageFunc{},
		edges:  map[string]EdgeFunc{},
		log:    log,
	}
}

func (b *Builder) AddStage(name string, fn StageFunc) *Builder {
	b.stages[name] = fn
	return b
}

// AddEdge wires a fixed transition.
func (b *Builder) AddEdge(from, to string) *Builder {
	b.edges[from] = func(*RunState) string { return to }
	return b
}

// AddConditionalEdge wires a transition resolved from the state at runtime.
func (b *Builder) AddConditionalEdge(from string, fn EdgeFunc) *Builder {
	b.edges[from] = fn
	return b
}

func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

// SetHalt names the stage ErrHalt jumps to, normally the finalizer.
func (b *Builder) SetHalt(name string) *Builder {
	b.haltTo = name
	return b
}

func (b *Builder) WithCheckpoints(cs CheckpointStore) *Builder {
	b.checkpoints = cs
	return b
}

func (b *Builder) WithProgress(e Emitter) *Builder {
	b.progress = e
	return b
}

// Compile validates the graph: the entry and halt stages must exist and
// every stage needs an outgoing edge.
func (b *Builder) Compile() (*Graph, error) {
	if b.entry == "" {
		return nil, errors.New("graph has no entry stage")
	}
	if _, ok := b.stages[b.entry]; !ok {
		return nil, fmt.Errorf("entry stage %q not registered", b.entry)
	}
	if b.haltTo != "" {
		if _, ok := b.stages[b.haltTo]; !ok {
			return nil, fmt.Errorf("halt stage %q not registered", b.haltTo)
		}
	}
	for name := range b.stages {
		if _, ok := b.edges[name]; !ok {
			return nil, fmt.Errorf("stage %q has no outgoing edge", name)
		}
	}
	return &Graph{
		entry:       b.entry,
		haltTo:      b.haltTo,
		stages:      b.stages,
		edges:       b.edges,
		checkpoints: b.checkpoints,
		progress:    b.progress,
		log:         b.log,
	}, nil
}

// Run executes the graph for one state. Between stages it honors context
// cancellation; inside a stage, cancellation is the stage's concern through
// the same context. Stage panics are converted to recorded errors so one
// turn can never take the worker down.
func (g *Graph) Run(ctx context.Context, st *RunState) *RunState {
	current := g.entry
	for current != End {
		if err := ctx.Err(); err != nil {
			st.Status = StatusFailed
			st.RecordError(current, fmt.Errorf("cancelled before stage: %w", err))
			g.emit(st, current, "cancelled", "")
			break
		}

		fn, ok := g.stages[current]
		if !ok {
			st.Status = StatusFailed
			st.RecordError(current, errors.New("unknown stage"))
			break
		}

		g.emit(st, current, "started", "")
		started := time.Now()
		err := g.runStage(ctx, fn, st)

		record := StageRecord{Name: current, StartedAt: started, Elapsed: time.Since(started)}
		if err != nil {
			record.Error = err.Error()
			st.RecordError(current, err)
			st.failure = err
		}
		st.Stages = append(st.Stages, record)

		g.checkpoint(ctx, st)

		if err != nil {
			g.emit(st, current, "failed", err.Error())
		} else {
			g.emit(st, current, "completed", "")
		}

		switch {
		case errors.Is(err, ErrHalt) && g.haltTo != "" && current != g.haltTo:
			current = g.haltTo
		default:
			current = g.edges[current](st)
		}
	}
	return st
}

func (g *Graph) runStage(ctx context.Context, fn StageFunc, st *RunState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
			g.log.Error("workflow", "recovered stage panic", map[string]interface{}{
				"session_id": st.SessionID, "panic": fmt.Sprintf("%v", r),
			})
		}
	}()
	return fn(ctx, st)
}

func (g *Graph) checkpoint(ctx context.Context, st *RunState) {
	if g.checkpoints == nil {
		return
	}
	if err := g.checkpoints.Save(ctx, st.SessionID, st); err != nil {
		g.log.Warn("workflow", "checkpoint save failed", map[string]interface{}{
			"session_id": st.SessionID, "error": err.Error(),
		})
	}
}

func (g *Graph) emit(st *RunState, stage, status, detail string) {
	if g.progress == nil {
		return
	}
	g.progress.Emit(ProgressEvent{
		SessionID: st.SessionID,
		Stage:     stage,
		Status:    status,
		Detail:    detail,
		At:        time.Now(),
	})
}
