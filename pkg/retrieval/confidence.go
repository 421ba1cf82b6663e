package retrieval

// estimateConfidence scores how well a ranked result set answers the
// query on a 0..1 scale. It blends the strength of the top hit, the
// diversity of contributing sources, and how much of the query the top
// results actually cover. An empty result set is always 0.
func estimateConfidence(ranked []ScoredDocument, terms []string) float64 {
	if len(ranked) == 0 {
		return 0
	}

	top := ranked[0].Composite
	if top > 1 {
		top = 1
	}
	if top < 0 {
		top = 0
	}

	origins := map[SourceType]struct{}{}
	for _, d := range ranked {
		origins[d.Origin] = struct{}{}
	}
	diversity := float64(len(origins)) / 4

	inspect := ranked
	if len(inspect) > 3 {
		inspect = inspect[:3]
	}
	var coverage float64
	for _, d := range inspect {
		f := overlapFraction(d.Title+" "+d.Excerpt, terms)
		if f > coverage {
			coverage = f
		}
	}

	score := 0.5*top + 0.2*diversity + 0.3*coverage
	if score > 1 {
		score = 1
	}
	return score
}
