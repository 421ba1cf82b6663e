package transcription

import (
	"context"
	"encoding/base64"

	"ai-companion-be/pkg/cache"
)

// Transcriber converts voice data to text. The concrete speech-to-text
// backend lives outside this module.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// CachedTranscriber fronts a Transcriber with the tiered cache keyed by a
// hash of the audio payload.
type CachedTranscriber struct {
	inner Transcriber
	store cache.Store
}

func NewCachedTranscriber(inner Transcriber, store cache.Store) *CachedTranscriber {
	return &CachedTranscriber{inner: inner, store: store}
}

func (t *CachedTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	key := cache.Key(cache.NamespaceSpeech, base64.StdEncoding.EncodeToString(audio))

	if text, ok := t.store.Get(ctx, key); ok {
		return text, nil
	}

	text, err := t.inner.Transcribe(ctx, audio)
	if err != nil {
		return "", err
	}

	t.store.Set(ctx, key, text, 0)
	return text, nil
}
