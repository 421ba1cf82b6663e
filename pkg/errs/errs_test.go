package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyPredicates(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, IsValidation(Validation("input", "missing")))
	assert.True(t, IsTransient(ProviderTransient("ollama", base)))
	assert.True(t, IsTimeout(ProviderTimeout("ollama", base)))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsStorage(Storage("work_history", base)))

	// Predicates see through wrapping
	wrapped := fmt.Errorf("stage agent: %w", ProviderTransient("ollama", base))
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsTimeout(wrapped))
}

func TestUserMessageNeverExposesProviderText(t *testing.T) {
	raw := errors.New("429 rate limited by upstream: token xyz")

	for _, err := range []error{
		ProviderTransient("ollama", raw),
		ProviderTimeout("ollama", raw),
		Storage("archive", raw),
		Validation("input", "empty"),
		raw,
	} {
		msg := UserMessage(err)
		assert.NotEmpty(t, msg)
		assert.NotContains(t, msg, "429")
		assert.NotContains(t, msg, "xyz")
	}

	assert.Empty(t, UserMessage(nil))
}
