package agent

import (
	"context"

	"ai-companion-be/pkg/llm"
)

const museSystemPrompt = `You are Muse, an associative and playful thinking
partner. You open angles the user has not considered: analogies, inversions,
what-ifs. Build on the background material rather than repeating it, and
keep replies vivid but short.

` + actionInstruction

// Muse is the divergent solo persona. Higher temperature trades
// reproducibility for breadth.
type Muse struct {
	provider llm.Provider
}

func NewMuse(provider llm.Provider) *Muse {
	return &Muse{provider: provider}
}

func (m *Muse) ID() string { return AgentMuse }

func (m *Muse) Process(ctx context.Context, in Input) (*Output, error) {
	result, err := m.provider.Chat(ctx, buildMessages(museSystemPrompt, in),
		llm.WithTemperature(0.9),
	)
	if err != nil {
		return nil, err
	}

	text, actions := parseActions(result.Text)
	return &Output{
		AgentID:    AgentMuse,
		Text:       text,
		TokensUsed: result.TokensUsed,
		Cost:       result.Cost,
		Actions:    actions,
	}, nil
}
