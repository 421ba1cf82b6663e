package retrieval

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const minPartialTokens = 50

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		t, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = t
		}
	})
	return enc
}

// CountTokens counts BPE tokens in text, falling back to a rough
// bytes/4 estimate if the encoding tables are unavailable.
func CountTokens(text string) int {
	if e := encoder(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return len(text) / 4
}

// fitToBudget trims a ranked result list so the combined excerpts fit
// within budget tokens. Results are kept in rank order; the first result
// that would overflow is truncated rather than dropped when enough room
// remains, so a tight budget still yields at least one partial source.
func fitToBudget(ranked []ScoredDocument, budget int) []ScoredDocument {
	if budget <= 0 || len(ranked) == 0 {
		return ranked
	}

	out := make([]ScoredDocument, 0, len(ranked))
	remaining := budget
	for _, d := range ranked {
		n := CountTokens(d.Excerpt)
		if n <= remaining {
			out = append(out, d)
			remaining -= n
			continue
		}
		if len(out) == 0 || remaining >= minPartialTokens {
			d.Excerpt = truncateTokens(d.Excerpt, remaining)
			out = append(out, d)
		}
		break
	}
	return out
}

func truncateTokens(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	e := encoder()
	if e == nil {
		if len(text) > limit*4 {
			return text[:limit*4]
		}
		return text
	}
	ids := e.Encode(text, nil, nil)
	if len(ids) <= limit {
		return text
	}
	return e.Decode(ids[:limit])
}
