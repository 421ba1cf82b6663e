package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

const (
	titleBoostWeight   = 0.10
	contentBoostWeight = 0.05
	recencyBoostWeight = 0.05
	webFreshnessWindow = 72 * time.Hour
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "for": {}, "and": {},
	"or": {}, "what": {}, "how": {}, "do": {}, "does": {}, "my": {},
}

// queryTerms lowercases and splits the query, dropping stopwords and
// single-rune fragments.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// rerank folds raw sub-search scores into a single comparable composite.
// Raw scores are normalized per origin so one source's scale cannot drown
// out the others, then weighted and boosted by term overlap and, for web
// results, freshness.
func rerank(candidates []ScoredDocument, terms []string, params FusionParams, now time.Time) []ScoredDocument {
	if len(candidates) == 0 {
		return nil
	}

	maxByOrigin := map[SourceType]float64{}
	for _, c := range candidates {
		if c.RawScore > maxByOrigin[c.Origin] {
			maxByOrigin[c.Origin] = c.RawScore
		}
	}

	ranked := make([]ScoredDocument, len(candidates))
	copy(ranked, candidates)

	for i := range ranked {
		d := &ranked[i]
		norm := d.RawScore
		if m := maxByOrigin[d.Origin]; m > 0 {
			norm = d.RawScore / m
		}
		weight := params.WeightFor(d.Origin)
		base := weight * norm

		titleBoost := titleBoostWeight * overlapFraction(d.Title, terms)
		contentBoost := contentBoostWeight * overlapFraction(d.Excerpt, terms)

		var recencyBoost float64
		if d.Origin == SourceWeb && !d.RetrievedAt.IsZero() {
			age := now.Sub(d.RetrievedAt)
			if age < webFreshnessWindow {
				recencyBoost = recencyBoostWeight * (1 - age.Seconds()/webFreshnessWindow.Seconds())
			}
		}

		d.Composite = base + titleBoost + contentBoost + recencyBoost
		d.Explanation = fmt.Sprintf("%s weight=%.2f norm=%.3f title=%.3f content=%.3f recency=%.3f",
			d.Origin, weight, norm, titleBoost, contentBoost, recencyBoost)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Composite > ranked[j].Composite
	})
	return ranked
}

// overlapFraction returns the fraction of query terms present in text.
func overlapFraction(text string, terms []string) float64 {
	if len(terms) == 0 || text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
