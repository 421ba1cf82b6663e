package retrieval

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies which sub-search produced a candidate.
type SourceType string

const (
	SourceVector   SourceType = "vector"
	SourceFullText SourceType = "fulltext"
	SourceGraph    SourceType = "graph"
	SourceWeb      SourceType = "web"
)

// Strategy selects between fixed fusion weights and online auto-tuning.
type Strategy string

const (
	StrategyFixed    Strategy = "fixed"
	StrategyAdaptive Strategy = "adaptive"
)

// ScoredDocument is one ranked retrieval candidate. Composite is derived
// from RawScore and the fusion weights in force at ranking time; it is not
// mutated after ranking is finalized.
type ScoredDocument struct {
	SourceID    string     `json:"source_id"`
	Origin      SourceType `json:"origin"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	RawScore    float64    `json:"raw_score"`
	Composite   float64    `json:"composite"`
	Explanation string     `json:"explanation"`
	RetrievedAt time.Time  `json:"retrieved_at"`
}

// Context is the immutable result of one search call.
type Context struct {
	Query           string           `json:"query"`
	Results         []ScoredDocument `json:"results"`
	TotalCandidates int              `json:"total_candidates"`
	Elapsed         time.Duration    `json:"elapsed"`
	Weights         FusionParams     `json:"weights"`
	Confidence      float64          `json:"confidence"`
}

// Query carries the parameters of one search call.
type Query struct {
	Text      string
	UserID    uuid.UUID
	Limit     int
	Threshold float64
	Sources   []SourceType // empty = all sources
	Strategy  Strategy     // empty = engine default
}

func sourceAllowed(filter []SourceType, src SourceType) bool {
	if len(filter) == 0 {
		return true
	}
	for _, s := range filter {
		if s == src {
			return true
		}
	}
	return false
}
