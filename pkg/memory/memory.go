// Package memory assembles the conversational context a turn is answered
// with: the recent turns of the active conversation, relevant fragments of
// older conversations, and the user's stored preferences.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/embedding"
)

// Turn is one prior exchange inside the active conversation.
type Turn struct {
	Role    string
	Content string
	Agents  []string
}

// PastReference is a fragment recalled from an older conversation.
type PastReference struct {
	ConversationID uuid.UUID
	Content        string
	Similarity     float64
	SpokenAt       time.Time
}

// Snapshot is the assembled memory for one turn. Any section may be empty
// when its source was unavailable; an empty snapshot is still usable.
type Snapshot struct {
	Recent []Turn
	Past   []PastReference
	// Topic is a short term summary of what the conversation is currently
	// about, derived from the latest user turns.
	Topic       string
	Preferences entity.UserPreference
}

// MessageSource supplies conversation history. Implemented by the message
// repository through a thin adapter.
type MessageSource interface {
	RecentTurns(ctx context.Context, conversationID uuid.UUID, limit int) ([]Turn, error)
	SimilarPast(ctx context.Context, vector []float32, userID uuid.UUID, excludeConversation uuid.UUID, limit int, window time.Duration) ([]PastReference, error)
}

// PreferenceSource supplies stored user preferences. A nil preference with
// a nil error means none are stored yet.
type PreferenceSource interface {
	PreferencesFor(ctx context.Context, userID uuid.UUID) (*entity.UserPreference, error)
}

// Builder pulls the three memory sections together. Every source failure
// degrades to an empty section so a storage outage never blocks a reply.
type Builder struct {
	messages    MessageSource
	prefs       PreferenceSource
	embedder    embedding.Provider
	recentLimit int
	pastLimit   int
	window      time.Duration
	log         logger.ILogger
}

func NewBuilder(
	messages MessageSource,
	prefs PreferenceSource,
	embedder embedding.Provider,
	recentLimit int,
	window time.Duration,
	log logger.ILogger,
) *Builder {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &Builder{
		messages:    messages,
		prefs:       prefs,
		embedder:    embedder,
		recentLimit: recentLimit,
		pastLimit:   5,
		window:      window,
		log:         log,
	}
}

// Build assembles the snapshot for one turn. It never fails; sections
// whose source errored come back empty.
func (b *Builder) Build(ctx context.Context, userID, conversationID uuid.UUID, query string) *Snapshot {
	snap := &Snapshot{
		Preferences: *entity.DefaultUserPreference(userID),
	}

	recent, err := b.messages.RecentTurns(ctx, conversationID, b.recentLimit)
	if err != nil {
		b.log.Warn("memory", "recent turns unavailable, continuing without", map[string]interface{}{
			"conversation_id": conversationID.String(), "error": err.Error(),
		})
	} else {
		snap.Recent = recent
	}

	// Probe long-term memory with the thread of the conversation, not just
	// the last sentence: the latest user turns concatenated with the query.
	probe := topicProbe(snap.Recent, query)
	snap.Topic = topicOf(probe)

	if probe != "" {
		if emb, err := b.embedder.Generate(ctx, probe, embedding.TaskRetrievalQuery); err != nil {
			b.log.Warn("memory", "probe embedding failed, skipping long-term recall", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			past, err := b.messages.SimilarPast(ctx, emb.Values, userID, conversationID, b.pastLimit, b.window)
			if err != nil {
				b.log.Warn("memory", "long-term recall unavailable, continuing without", map[string]interface{}{
					"error": err.Error(),
				})
			} else {
				snap.Past = past
			}
		}
	}

	pref, err := b.prefs.PreferencesFor(ctx, userID)
	if err != nil {
		b.log.Warn("memory", "preferences unavailable, using defaults", map[string]interface{}{
			"user_id": userID.String(), "error": err.Error(),
		})
	} else if pref != nil {
		snap.Preferences = *pref
	}

	return snap
}

// probeTurns is how many of the latest user turns feed the topic probe.
const probeTurns = 3

func topicProbe(recent []Turn, query string) string {
	var parts []string
	for i := len(recent) - 1; i >= 0 && len(parts) < probeTurns; i-- {
		if recent[i].Role == "user" {
			parts = append([]string{recent[i].Content}, parts...)
		}
	}
	if query != "" {
		parts = append(parts, query)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

var topicStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "your": {}, "with": {}, "this": {}, "that": {}, "have": {},
	"from": {}, "what": {}, "when": {}, "where": {}, "how": {}, "why": {},
	"can": {}, "could": {}, "should": {}, "would": {}, "about": {},
	"please": {}, "there": {}, "their": {}, "them": {}, "they": {},
	"was": {}, "were": {}, "will": {}, "just": {}, "like": {}, "into": {},
}

// topicOf distills the probe into a short comma separated term summary,
// most frequent terms first.
func topicOf(probe string) string {
	type term struct {
		word  string
		count int
	}
	seen := map[string]*term{}
	var order []*term
	for _, w := range strings.Fields(strings.ToLower(probe)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if utf8.RuneCountInString(w) < 3 {
			continue
		}
		if _, stop := topicStopwords[w]; stop {
			continue
		}
		if t, ok := seen[w]; ok {
			t.count++
			continue
		}
		t := &term{word: w, count: 1}
		seen[w] = t
		order = append(order, t)
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].count > order[j].count })
	if len(order) > 6 {
		order = order[:6]
	}
	words := make([]string, 0, len(order))
	for _, t := range order {
		words = append(words, t.word)
	}
	return strings.Join(words, ", ")
}
