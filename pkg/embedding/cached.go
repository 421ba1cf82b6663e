package embedding

import (
	"context"
	"encoding/json"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/cache"
)

// CachedProvider wraps a Provider with the tiered cache so identical texts
// are embedded once per TTL window.
type CachedProvider struct {
	inner  Provider
	store  cache.Store
	logger logger.ILogger
}

func NewCachedProvider(inner Provider, store cache.Store, log logger.ILogger) *CachedProvider {
	return &CachedProvider{inner: inner, store: store, logger: log}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*Response, error) {
	key := cache.Key(cache.NamespaceEmbedding, taskType, text)

	if raw, ok := p.store.Get(ctx, key); ok {
		var res Response
		if err := json.Unmarshal([]byte(raw), &res); err == nil {
			return &res, nil
		}
		// Corrupt entry: drop it and recompute
		p.store.Delete(ctx, key)
	}

	res, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(res); err == nil {
		p.store.Set(ctx, key, string(raw), 0)
	} else {
		p.logger.Warn("embedding", "failed to serialize embedding for cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return res, nil
}
