package retrieval

import "sync/atomic"

const (
	minSourceWeight = 0.05
	maxSourceWeight = 0.60
	maxTuneStep     = 0.05
)

// FusionParams holds the per-source fusion weights and search thresholds.
// Values are read through an atomic snapshot so searches in flight keep a
// consistent set even while the tuner adjusts them.
type FusionParams struct {
	VectorWeight        float64 `json:"vector_weight"`
	FullTextWeight      float64 `json:"fulltext_weight"`
	GraphWeight         float64 `json:"graph_weight"`
	WebWeight           float64 `json:"web_weight"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	MaxResults          int     `json:"max_results"`
	WebSearchTrigger    float64 `json:"web_search_trigger"`
}

func DefaultFusionParams() FusionParams {
	return FusionParams{
		VectorWeight:        0.40,
		FullTextWeight:      0.30,
		GraphWeight:         0.15,
		WebWeight:           0.15,
		SimilarityThreshold: 0.35,
		MaxResults:          10,
		WebSearchTrigger:    0.45,
	}
}

func (p FusionParams) WeightFor(src SourceType) float64 {
	switch src {
	case SourceVector:
		return p.VectorWeight
	case SourceFullText:
		return p.FullTextWeight
	case SourceGraph:
		return p.GraphWeight
	case SourceWeb:
		return p.WebWeight
	}
	return 0
}

func (p FusionParams) clamped() FusionParams {
	p.VectorWeight = clampWeight(p.VectorWeight)
	p.FullTextWeight = clampWeight(p.FullTextWeight)
	p.GraphWeight = clampWeight(p.GraphWeight)
	p.WebWeight = clampWeight(p.WebWeight)
	return p
}

func clampWeight(w float64) float64 {
	if w < minSourceWeight {
		return minSourceWeight
	}
	if w > maxSourceWeight {
		return maxSourceWeight
	}
	return w
}

// Params is a lock-free holder for the current FusionParams.
type Params struct {
	v atomic.Pointer[FusionParams]
}

func NewParams(p FusionParams) *Params {
	ps := &Params{}
	p = p.clamped()
	ps.v.Store(&p)
	return ps
}

// Snapshot returns the current parameter set by value.
func (ps *Params) Snapshot() FusionParams {
	return *ps.v.Load()
}

func (ps *Params) store(p FusionParams) {
	p = p.clamped()
	ps.v.Store(&p)
}
