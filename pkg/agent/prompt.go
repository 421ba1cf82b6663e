package agent

import (
	"fmt"
	"regexp"
	"strings"

	"ai-companion-be/pkg/llm"
	"ai-companion-be/pkg/memory"
)

var actionTagRe = regexp.MustCompile(`<action>([a-z_]+)</action>`)

// buildMessages assembles the chat history for a persona call: system
// prompt, recalled fragments and retrieved context as system turns, the
// recent conversation verbatim, then the current query.
func buildMessages(systemPrompt string, in Input) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: systemPrompt}}

	if in.Memory != nil {
		if block := contextBlock(in.Memory); block != "" {
			msgs = append(msgs, llm.Message{Role: "system", Content: block})
		}
		if len(in.Memory.Past) > 0 {
			var b strings.Builder
			b.WriteString("Relevant moments from earlier conversations:\n")
			for _, p := range in.Memory.Past {
				fmt.Fprintf(&b, "- %s\n", p.Content)
			}
			msgs = append(msgs, llm.Message{Role: "system", Content: b.String()})
		}
	}

	if in.Retrieval != nil && len(in.Retrieval.Results) > 0 {
		var b strings.Builder
		b.WriteString("Background material retrieved for this turn:\n")
		for _, d := range in.Retrieval.Results {
			fmt.Fprintf(&b, "[%s] %s\n%s\n\n", d.Origin, d.Title, d.Excerpt)
		}
		msgs = append(msgs, llm.Message{Role: "system", Content: b.String()})
	}

	if in.Memory != nil {
		for _, t := range in.Memory.Recent {
			msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
		}
	}

	msgs = append(msgs, llm.Message{Role: "user", Content: in.Query})
	return msgs
}

func contextBlock(m *memory.Snapshot) string {
	var lines []string
	if m.Topic != "" {
		lines = append(lines, "The conversation is currently about: "+m.Topic)
	}
	if len(m.Preferences.Topics) > 0 {
		lines = append(lines, "The user cares about these topics: "+strings.Join(m.Preferences.Topics, ", "))
	}
	return strings.Join(lines, "\n")
}

// parseActions strips <action>...</action> tags from the model output and
// returns the cleaned text with the actions found.
func parseActions(text string) (string, []string) {
	matches := actionTagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	actions := make([]string, 0, len(matches))
	for _, m := range matches {
		actions = append(actions, m[1])
	}
	cleaned := strings.TrimSpace(actionTagRe.ReplaceAllString(text, ""))
	return cleaned, actions
}

const actionInstruction = `If the user explicitly asks you to save, archive or
note something down, append <action>archive</action> on its own line after
your reply. Never mention the tag in your prose.`
