// Package websearch queries a SearxNG-compatible metasearch endpoint and
// adapts its results to retrieval candidates.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/retrieval"
)

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"publishedDate"`
}

// Client calls a SearxNG JSON endpoint. It satisfies the retrieval
// engine's WebSearcher contract.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SearchWeb(ctx context.Context, query string, limit int) ([]retrieval.ScoredDocument, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.ProviderTransient("websearch", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errs.ProviderTimeout("websearch", err)
		}
		return nil, errs.ProviderTransient("websearch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.ProviderTransient("websearch", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errs.ProviderTransient("websearch", fmt.Errorf("decode response: %w", err))
	}

	now := time.Now()
	docs := make([]retrieval.ScoredDocument, 0, limit)
	for _, r := range body.Results {
		if len(docs) >= limit {
			break
		}
		retrievedAt := now
		if r.PublishedDate != "" {
			if ts, perr := time.Parse(time.RFC3339, r.PublishedDate); perr == nil {
				retrievedAt = ts
			}
		}
		score := r.Score
		if score <= 0 {
			// SearxNG omits scores for some engines; fall back to rank order.
			score = 1.0 / float64(len(docs)+1)
		}
		docs = append(docs, retrieval.ScoredDocument{
			SourceID:    r.URL,
			Origin:      retrieval.SourceWeb,
			Title:       r.Title,
			Excerpt:     r.Content,
			RawScore:    score,
			RetrievedAt: retrievedAt,
		})
	}
	return docs, nil
}
