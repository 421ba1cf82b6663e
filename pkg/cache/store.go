package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"ai-companion-be/internal/pkg/logger"
)

// Namespace prefixes keys of one expensive-operation family. Namespaces are
// key conventions over a single store, not separate stores.
type Namespace string

const (
	NamespaceEmbedding Namespace = "emb"
	NamespaceSpeech    Namespace = "stt"
	NamespaceResponse  Namespace = "llm"
	NamespaceSearch    Namespace = "search"
)

// Key derives a stable cache key from an operation namespace and its inputs.
func Key(ns Namespace, parts ...string) string {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.WriteString("\x1f")
	}
	return fmt.Sprintf("%s:%016x", ns, h.Sum64())
}

// Remote is the distributed L2 tier. Implementations must treat absence and
// unavailability the same way: the tiered store degrades to L1-only.
type Remote interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Store is the cache contract consumed by retrieval, memory and the
// orchestrator's cached providers.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context, pattern string)
}

// TieredStore fronts expensive operations with an in-process LRU (L1) and a
// distributed KV (L2). Reads check L1 first and backfill it on an L2 hit.
// Writes go to L1 synchronously and to L2 best-effort: any L2 error is
// logged and treated as a miss, never surfaced to the caller.
type TieredStore struct {
	l1     *lruCache
	l2     Remote
	ttls   map[Namespace]time.Duration
	logger logger.ILogger
	stop   chan struct{}
}

type TTLConfig struct {
	Embedding time.Duration
	Speech    time.Duration
	Response  time.Duration
	Search    time.Duration
}

func NewTieredStore(capacity int, l2 Remote, ttls TTLConfig, sweepInterval time.Duration, log logger.ILogger) *TieredStore {
	s := &TieredStore{
		l1: newLRUCache(capacity),
		l2: l2,
		ttls: map[Namespace]time.Duration{
			NamespaceEmbedding: ttls.Embedding,
			NamespaceSpeech:    ttls.Speech,
			NamespaceResponse:  ttls.Response,
			NamespaceSearch:    ttls.Search,
		},
		logger: log,
		stop:   make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// DefaultTTL returns the namespace TTL applied when the caller passes ttl 0.
func (s *TieredStore) DefaultTTL(key string) time.Duration {
	if idx := strings.Index(key, ":"); idx > 0 {
		if ttl, ok := s.ttls[Namespace(key[:idx])]; ok {
			return ttl
		}
	}
	return time.Hour
}

func (s *TieredStore) Get(ctx context.Context, key string) (string, bool) {
	if value, ok := s.l1.Get(key); ok {
		return value, true
	}

	if s.l2 == nil {
		return "", false
	}

	value, ok, err := s.l2.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache", "L2 get failed, degrading to miss", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
		return "", false
	}
	if !ok {
		return "", false
	}

	// Backfill L1 on L2 hit
	s.l1.Set(key, value, s.DefaultTTL(key))
	return value, true
}

func (s *TieredStore) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.DefaultTTL(key)
	}

	s.l1.Set(key, value, ttl)

	if s.l2 == nil {
		return
	}
	if err := s.l2.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache", "L2 set failed, continuing L1-only", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
	}
}

func (s *TieredStore) Delete(ctx context.Context, key string) {
	s.l1.Delete(key)

	if s.l2 == nil {
		return
	}
	if err := s.l2.Delete(ctx, key); err != nil {
		s.logger.Warn("cache", "L2 delete failed", map[string]interface{}{
			"key": key, "error": err.Error(),
		})
	}
}

// Clear removes all entries matching the given key-prefix pattern. An empty
// pattern clears everything.
func (s *TieredStore) Clear(ctx context.Context, pattern string) {
	s.l1.DeletePrefix(pattern)

	if s.l2 == nil {
		return
	}
	if err := s.l2.DeletePattern(ctx, pattern+"*"); err != nil {
		s.logger.Warn("cache", "L2 pattern delete failed", map[string]interface{}{
			"pattern": pattern, "error": err.Error(),
		})
	}
}

func (s *TieredStore) Close() {
	close(s.stop)
}

func (s *TieredStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if purged := s.l1.Sweep(); purged > 0 {
				s.logger.Debug("cache", "L1 sweep purged expired entries", map[string]interface{}{
					"purged": purged,
				})
			}
		case <-s.stop:
			return
		}
	}
}
