package router

import (
	"context"

	"ai-companion-be/pkg/cache"
)

// CachedClassifier fronts a Classifier with the tiered cache. The route
// for an identical query is stable, so repeat classifications skip the
// model call.
type CachedClassifier struct {
	inner Classifier
	store cache.Store
}

func NewCachedClassifier(inner Classifier, store cache.Store) *CachedClassifier {
	return &CachedClassifier{inner: inner, store: store}
}

func (c *CachedClassifier) Classify(ctx context.Context, query string) (string, error) {
	key := cache.Key(cache.NamespaceResponse, "route", query)

	if route, ok := c.store.Get(ctx, key); ok {
		return route, nil
	}

	route, err := c.inner.Classify(ctx, query)
	if err != nil {
		return "", err
	}

	c.store.Set(ctx, key, route, 0)
	return route, nil
}
