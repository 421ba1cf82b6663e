package router

import (
	"context"
	"strings"

	"ai-companion-be/pkg/llm"
)

const classifierPrompt = `Classify which assistant persona should answer the
message below. Reply with exactly one word:
mentor - the user wants analysis, planning, a structured answer
muse - the user wants brainstorming, creative angles, open exploration
discussion - the user wants both views or the intent is mixed

Message:
`

// LLMClassifier asks the chat model for the route. It is deliberately a
// single cheap call with a one-word answer.
type LLMClassifier struct {
	provider llm.Provider
}

func NewLLMClassifier(provider llm.Provider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) (string, error) {
	result, err := c.provider.Generate(ctx, classifierPrompt+query,
		llm.WithTemperature(0),
		llm.WithMaxTokens(4),
	)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(result.Text)), nil
}
