// Package agent holds the conversational personas and the prompt assembly
// that turns memory and retrieved context into provider calls.
package agent

import (
	"context"

	"ai-companion-be/pkg/memory"
	"ai-companion-be/pkg/retrieval"
)

const (
	AgentMentor = "mentor"
	AgentMuse   = "muse"
)

// ActionArchive is reported by an agent when the user asked for something
// worth persisting as an artifact.
const ActionArchive = "archive"

// Input is everything a persona needs to answer one turn.
type Input struct {
	Query     string
	Memory    *memory.Snapshot
	Retrieval *retrieval.Context
}

// Output is one persona's contribution to a turn.
type Output struct {
	AgentID    string
	Text       string
	TokensUsed int
	Cost       float64
	Actions    []string
}

// Processor is a single conversational persona.
type Processor interface {
	ID() string
	Process(ctx context.Context, in Input) (*Output, error)
}

func hasAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
