package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/cache"
	"ai-companion-be/pkg/embedding"
)

const maxParallelSearches = 5

// VectorSearcher finds documents by embedding similarity.
type VectorSearcher interface {
	SearchVector(ctx context.Context, vector []float32, userID uuid.UUID, limit int, threshold float64) ([]ScoredDocument, error)
}

// FullTextSearcher finds documents by keyword relevance.
type FullTextSearcher interface {
	SearchFullText(ctx context.Context, query string, userID uuid.UUID, limit int) ([]ScoredDocument, error)
}

// GraphSearcher finds documents related through shared tags and references.
type GraphSearcher interface {
	SearchGraph(ctx context.Context, terms []string, userID uuid.UUID, limit int) ([]ScoredDocument, error)
}

// WebSearcher queries an external search service.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string, limit int) ([]ScoredDocument, error)
}

// EngineConfig carries the tunables the engine reads at construction.
type EngineConfig struct {
	Strategy         Strategy
	SubSearchTimeout time.Duration
	TokenBudget      int
}

// Engine fans a query out to the configured sub-searches, fuses their
// candidates under the current weights, and returns a budgeted, ranked
// Context. Sub-search failures degrade the result, they never fail the
// search; only a fully empty fan-out yields an empty Context with
// confidence zero.
type Engine struct {
	cfg      EngineConfig
	embedder embedding.Provider
	vector   VectorSearcher
	fulltext FullTextSearcher
	graph    GraphSearcher
	web      WebSearcher
	store    cache.Store
	params   *Params
	tuner    *Tuner
	log      logger.ILogger
}

func NewEngine(
	cfg EngineConfig,
	embedder embedding.Provider,
	vector VectorSearcher,
	fulltext FullTextSearcher,
	graph GraphSearcher,
	web WebSearcher,
	store cache.Store,
	params *Params,
	log logger.ILogger,
) *Engine {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyFixed
	}
	if cfg.SubSearchTimeout <= 0 {
		cfg.SubSearchTimeout = 5 * time.Second
	}
	e := &Engine{
		cfg:      cfg,
		embedder: embedder,
		vector:   vector,
		fulltext: fulltext,
		graph:    graph,
		web:      web,
		store:    store,
		params:   params,
		log:      log,
	}
	if cfg.Strategy == StrategyAdaptive {
		e.tuner = NewTuner(params, log)
	}
	return e
}

// Params exposes the live parameter holder, mainly for inspection.
func (e *Engine) Params() *Params {
	return e.params
}

// Search runs the hybrid retrieval flow for one query.
func (e *Engine) Search(ctx context.Context, q Query) (*Context, error) {
	tracer := otel.Tracer("retrieval")
	ctx, span := tracer.Start(ctx, "retrieval.Search")
	defer span.End()

	started := time.Now()
	snap := e.params.Snapshot()

	if q.Limit <= 0 {
		q.Limit = snap.MaxResults
	}
	if q.Threshold <= 0 {
		q.Threshold = snap.SimilarityThreshold
	}
	strategy := q.Strategy
	if strategy == "" {
		strategy = e.cfg.Strategy
	}
	span.SetAttributes(
		attribute.String("query", q.Text),
		attribute.Int("limit", q.Limit),
		attribute.String("strategy", string(strategy)),
	)

	key := cache.Key(cache.NamespaceSearch,
		q.Text,
		strconv.Itoa(q.Limit),
		fmt.Sprintf("%.4f", q.Threshold),
		string(strategy),
	)
	if e.store != nil {
		if raw, ok := e.store.Get(ctx, key); ok {
			var cached Context
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				span.SetAttributes(attribute.Bool("cache_hit", true))
				return &cached, nil
			}
			e.store.Delete(ctx, key)
		}
	}

	terms := queryTerms(q.Text)

	var queryVec []float32
	if e.vector != nil && sourceAllowed(q.Sources, SourceVector) {
		emb, err := e.embedder.Generate(ctx, q.Text, embedding.TaskRetrievalQuery)
		if err != nil {
			e.log.Warn("retrieval", "query embedding failed, vector search skipped", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			queryVec = emb.Values
		}
	}

	var (
		mu         sync.Mutex
		candidates []ScoredDocument
		failures   int
		attempted  int
	)
	collect := func(name SourceType, fn func(context.Context) ([]ScoredDocument, error)) func() error {
		return func() error {
			sctx, cancel := context.WithTimeout(ctx, e.cfg.SubSearchTimeout)
			defer cancel()

			docs, err := fn(sctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				e.log.Warn("retrieval", "sub-search failed, continuing with partial results", map[string]interface{}{
					"source": string(name), "error": err.Error(),
				})
				return nil
			}
			candidates = append(candidates, docs...)
			return nil
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelSearches)

	if e.vector != nil && queryVec != nil && sourceAllowed(q.Sources, SourceVector) {
		attempted++
		g.Go(collect(SourceVector, func(sctx context.Context) ([]ScoredDocument, error) {
			return e.vector.SearchVector(sctx, queryVec, q.UserID, q.Limit, q.Threshold)
		}))
	}
	if e.fulltext != nil && sourceAllowed(q.Sources, SourceFullText) {
		attempted++
		g.Go(collect(SourceFullText, func(sctx context.Context) ([]ScoredDocument, error) {
			return e.fulltext.SearchFullText(sctx, q.Text, q.UserID, q.Limit)
		}))
	}
	if e.graph != nil && sourceAllowed(q.Sources, SourceGraph) {
		attempted++
		g.Go(collect(SourceGraph, func(sctx context.Context) ([]ScoredDocument, error) {
			return e.graph.SearchGraph(sctx, terms, q.UserID, q.Limit)
		}))
	}
	_ = g.Wait()

	// Web search runs after the local sources so the adaptive strategy can
	// gate it on how confident the local results already are.
	if e.web != nil && sourceAllowed(q.Sources, SourceWeb) {
		runWeb := true
		if strategy == StrategyAdaptive {
			interim := estimateConfidence(rerank(candidates, terms, snap, started), terms)
			runWeb = interim < snap.WebSearchTrigger
			span.SetAttributes(attribute.Float64("interim_confidence", interim))
		}
		if runWeb {
			attempted++
			wg, _ := errgroup.WithContext(ctx)
			wg.Go(collect(SourceWeb, func(sctx context.Context) ([]ScoredDocument, error) {
				return e.web.SearchWeb(sctx, q.Text, q.Limit)
			}))
			_ = wg.Wait()
		}
	}

	total := len(candidates)
	ranked := rerank(candidates, terms, snap, time.Now())
	if len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	if e.cfg.TokenBudget > 0 {
		ranked = fitToBudget(ranked, e.cfg.TokenBudget)
	}

	confidence := estimateConfidence(ranked, terms)
	if attempted > 0 && failures == attempted {
		e.log.Warn("retrieval", "all sub-searches failed", map[string]interface{}{
			"query": q.Text, "attempted": attempted,
		})
	}

	if strategy == StrategyAdaptive && e.tuner != nil {
		origins := map[SourceType]struct{}{}
		for _, d := range ranked {
			origins[d.Origin] = struct{}{}
		}
		e.tuner.Observe(outcome{
			Confidence: confidence,
			Results:    len(ranked),
			Sources:    len(origins),
		})
	}

	rc := &Context{
		Query:           q.Text,
		Results:         ranked,
		TotalCandidates: total,
		Elapsed:         time.Since(started),
		Weights:         snap,
		Confidence:      confidence,
	}

	if e.store != nil && len(ranked) > 0 {
		if raw, err := json.Marshal(rc); err == nil {
			e.store.Set(ctx, key, string(raw), 0)
		}
	}

	span.SetAttributes(
		attribute.Int("results", len(ranked)),
		attribute.Float64("confidence", confidence),
	)
	return rc, nil
}
