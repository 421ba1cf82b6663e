package agent

import (
	"context"

	"ai-companion-be/pkg/llm"
)

const mentorSystemPrompt = `You are Mentor, a precise and grounded thinking
partner. You answer with structure: name the core of the question, reason
through it step by step, and close with a concrete recommendation. Prefer
the provided background material over speculation, and say plainly when the
material does not cover the question.

` + actionInstruction

// Mentor is the analytic solo persona. Low temperature keeps its answers
// reproducible and tightly bound to retrieved material.
type Mentor struct {
	provider llm.Provider
}

func NewMentor(provider llm.Provider) *Mentor {
	return &Mentor{provider: provider}
}

func (m *Mentor) ID() string { return AgentMentor }

func (m *Mentor) Process(ctx context.Context, in Input) (*Output, error) {
	result, err := m.provider.Chat(ctx, buildMessages(mentorSystemPrompt, in),
		llm.WithTemperature(0.3),
	)
	if err != nil {
		return nil, err
	}

	text, actions := parseActions(result.Text)
	return &Output{
		AgentID:    AgentMentor,
		Text:       text,
		TokensUsed: result.TokensUsed,
		Cost:       result.Cost,
		Actions:    actions,
	}, nil
}
