package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRerankOrdersByWeightedScore(t *testing.T) {
	params := DefaultFusionParams()
	now := time.Now()
	candidates := []ScoredDocument{
		{SourceID: "low-vec", Origin: SourceVector, RawScore: 0.2},
		{SourceID: "top-vec", Origin: SourceVector, RawScore: 0.9},
		{SourceID: "top-graph", Origin: SourceGraph, RawScore: 1.0},
	}

	ranked := rerank(candidates, nil, params, now)

	// Vector carries 0.40 weight against graph's 0.15, so the best vector
	// hit outranks a perfect graph hit.
	assert.Equal(t, "top-vec", ranked[0].SourceID)
	assert.Equal(t, "top-graph", ranked[1].SourceID)
	assert.Equal(t, "low-vec", ranked[2].SourceID)
}

func TestRerankTermOverlapBreaksTies(t *testing.T) {
	params := DefaultFusionParams()
	terms := queryTerms("refund policy for annual plans")
	now := time.Now()
	candidates := []ScoredDocument{
		{SourceID: "unrelated", Origin: SourceFullText, RawScore: 0.8, Title: "Meeting notes", Excerpt: "weekly sync agenda"},
		{SourceID: "relevant", Origin: SourceFullText, RawScore: 0.8, Title: "Refund policy", Excerpt: "annual plans are refunded pro rata"},
	}

	ranked := rerank(candidates, terms, params, now)

	assert.Equal(t, "relevant", ranked[0].SourceID)
	assert.Greater(t, ranked[0].Composite, ranked[1].Composite)
}

func TestRerankWebRecencyBoost(t *testing.T) {
	params := DefaultFusionParams()
	now := time.Now()
	candidates := []ScoredDocument{
		{SourceID: "stale", Origin: SourceWeb, RawScore: 0.9, RetrievedAt: now.Add(-200 * time.Hour)},
		{SourceID: "fresh", Origin: SourceWeb, RawScore: 0.9, RetrievedAt: now.Add(-1 * time.Hour)},
	}

	ranked := rerank(candidates, nil, params, now)

	assert.Equal(t, "fresh", ranked[0].SourceID)
}

func TestRerankNormalizesPerOrigin(t *testing.T) {
	params := DefaultFusionParams()
	// Fulltext scores on an unbounded ts_rank scale must not drown out
	// vector similarities that live on 0..1.
	candidates := []ScoredDocument{
		{SourceID: "ft", Origin: SourceFullText, RawScore: 42.0},
		{SourceID: "vec", Origin: SourceVector, RawScore: 0.95},
	}

	ranked := rerank(candidates, nil, params, time.Now())

	assert.Equal(t, "vec", ranked[0].SourceID)
}

func TestQueryTermsDropsStopwords(t *testing.T) {
	terms := queryTerms("What is the refund policy?")
	assert.Equal(t, []string{"refund", "policy"}, terms)
}
