// Package chunk splits artifact bodies into sentence-aware, token-bounded
// pieces for embedding. Boundaries prefer sentence ends so a chunk reads as
// coherent prose; an overlap window carries context across boundaries.
package chunk

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

var (
	enc     *tiktoken.Tiktoken
	encOnce sync.Once
)

// Piece is one embeddable slice of a larger text.
type Piece struct {
	Text   string
	Tokens int
	Index  int
}

// Config bounds chunk size in tokens. Overlap tokens from the tail of one
// chunk are prepended to the next.
type Config struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultConfig fits 768-dimension embedding models with a 512 token
// context window.
func DefaultConfig() Config {
	return Config{MaxTokens: 400, OverlapTokens: 50}
}

// Split breaks text into token-bounded pieces along sentence boundaries.
func Split(text string, cfg Config) []Piece {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if cfg.MaxTokens <= 0 {
		cfg = DefaultConfig()
	}

	sentences := splitSentences(text)

	var pieces []Piece
	var buf strings.Builder
	bufTokens := 0
	index := 0

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		pieces = append(pieces, Piece{
			Text:   strings.TrimSpace(buf.String()),
			Tokens: bufTokens,
			Index:  index,
		})
		index++
		buf.Reset()
		bufTokens = 0
	}

	for i, sentence := range sentences {
		n := countTokens(sentence)

		// A single sentence past the limit gets sliced at token level.
		if n > cfg.MaxTokens {
			flush()
			for _, sub := range sliceByTokens(sentence, cfg.MaxTokens) {
				pieces = append(pieces, Piece{
					Text:   strings.TrimSpace(sub.Text),
					Tokens: sub.Tokens,
					Index:  index,
				})
				index++
			}
			continue
		}

		if bufTokens+n > cfg.MaxTokens && buf.Len() > 0 {
			flush()
			overlap := overlapTail(sentences, i, cfg.OverlapTokens)
			if overlap != "" {
				buf.WriteString(overlap)
				bufTokens = countTokens(overlap)
			}
		}

		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sentence)
		bufTokens += n
	}
	flush()

	return pieces
}

func sliceByTokens(text string, maxTokens int) []Piece {
	ids := tokenizer().Encode(text, nil, nil)
	var pieces []Piece
	for i := 0; i < len(ids); i += maxTokens {
		end := i + maxTokens
		if end > len(ids) {
			end = len(ids)
		}
		pieces = append(pieces, Piece{
			Text:   tokenizer().Decode(ids[i:end]),
			Tokens: end - i,
		})
	}
	return pieces
}

func splitSentences(text string) []string {
	enders := map[rune]bool{'.': true, '!': true, '?': true, '…': true}

	var sentences []string
	for _, para := range splitParagraphs(text) {
		var current strings.Builder
		runes := []rune(para)
		for i, r := range runes {
			current.WriteRune(r)
			if enders[r] && (i+1 >= len(runes) || unicode.IsSpace(runes[i+1])) {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 && text != "" {
		return []string{text}
	}
	return sentences
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// overlapTail gathers whole sentences before index i until targetTokens
// is reached.
func overlapTail(sentences []string, i int, targetTokens int) string {
	if i == 0 || targetTokens <= 0 {
		return ""
	}
	var tail []string
	tokens := 0
	for j := i - 1; j >= 0 && tokens < targetTokens; j-- {
		tail = append([]string{sentences[j]}, tail...)
		tokens += countTokens(sentences[j])
	}
	return strings.Join(tail, " ")
}

func tokenizer() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		var err error
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			panic("failed to load tiktoken encoding: " + err.Error())
		}
	})
	return enc
}

func countTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(tokenizer().Encode(text, nil, nil))
}
