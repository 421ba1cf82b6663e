package embedding

import "context"

// Task types passed through to the provider so query and document vectors
// can use asymmetric embeddings where the model supports it.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Response carries the fixed-length vector for one input text.
type Response struct {
	Values []float32
	Tokens int
}

// Provider defines the interface for generating text embeddings. Providers
// must be deterministic for identical input so results can be cached by
// text hash.
type Provider interface {
	Generate(ctx context.Context, text string, taskType string) (*Response, error)
}
