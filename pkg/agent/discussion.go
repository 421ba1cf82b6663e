package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ai-companion-be/pkg/llm"
)

const AgentDiscussion = "discussion"

const synthesisPrompt = `You are moderating a discussion between two thinking
partners: Mentor, who is structured and grounded, and Muse, who is
associative and playful. Merge their two takes below into one coherent reply
to the user. Keep the tension between the views where it is productive,
attribute nothing, and do not repeat both takes verbatim.`

// Discussion invokes both solo personas on the same input and synthesizes
// their takes into one reply. One persona failing degrades to the survivor's
// answer; only both failing fails the turn.
type Discussion struct {
	mentor   Processor
	muse     Processor
	provider llm.Provider
}

func NewDiscussion(mentor, muse Processor, provider llm.Provider) *Discussion {
	return &Discussion{mentor: mentor, muse: muse, provider: provider}
}

func (d *Discussion) ID() string { return AgentDiscussion }

func (d *Discussion) Process(ctx context.Context, in Input) (*Output, error) {
	var mentorOut, museOut *Output
	var mentorErr, museErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mentorOut, mentorErr = d.mentor.Process(gctx, in)
		return nil
	})
	g.Go(func() error {
		museOut, museErr = d.muse.Process(gctx, in)
		return nil
	})
	_ = g.Wait()

	if mentorErr != nil && museErr != nil {
		return nil, fmt.Errorf("both personas failed: mentor: %w", mentorErr)
	}
	if mentorErr != nil {
		out := *museOut
		out.AgentID = AgentDiscussion
		return &out, nil
	}
	if museErr != nil {
		out := *mentorOut
		out.AgentID = AgentDiscussion
		return &out, nil
	}

	combined := fmt.Sprintf("User question:\n%s\n\nMentor's take:\n%s\n\nMuse's take:\n%s",
		in.Query, mentorOut.Text, museOut.Text)

	result, err := d.provider.Generate(ctx, synthesisPrompt+"\n\n"+combined,
		llm.WithTemperature(0.5),
	)
	if err != nil {
		// Synthesis is a refinement; fall back to the stronger structure of
		// the mentor take joined with the muse take.
		return &Output{
			AgentID:    AgentDiscussion,
			Text:       mentorOut.Text + "\n\n" + museOut.Text,
			TokensUsed: mentorOut.TokensUsed + museOut.TokensUsed,
			Cost:       mentorOut.Cost + museOut.Cost,
			Actions:    unionActions(mentorOut.Actions, museOut.Actions),
		}, nil
	}

	text, synthActions := parseActions(result.Text)
	return &Output{
		AgentID:    AgentDiscussion,
		Text:       text,
		TokensUsed: mentorOut.TokensUsed + museOut.TokensUsed + result.TokensUsed,
		Cost:       mentorOut.Cost + museOut.Cost + result.Cost,
		Actions:    unionActions(unionActions(mentorOut.Actions, museOut.Actions), synthActions),
	}, nil
}

func unionActions(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	for _, action := range b {
		if !hasAction(out, action) {
			out = append(out, action)
		}
	}
	return out
}
