package bootstrap

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/internal/service"
	"ai-companion-be/pkg/agent"
	"ai-companion-be/pkg/agent/router"
	"ai-companion-be/pkg/cache"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/llm"
	llmOllama "ai-companion-be/pkg/llm/ollama"
	"ai-companion-be/pkg/memory"
	pktNats "ai-companion-be/pkg/nats"
	"ai-companion-be/pkg/retrieval"
	"ai-companion-be/pkg/transcription"
	"ai-companion-be/pkg/websearch"
	"ai-companion-be/pkg/workflow"
)

// Container wires the whole worker: persistence, cache tiers, providers,
// the retrieval engine and the turn pipeline.
type Container struct {
	PipelineService service.IPipelineService

	// Exposed for main.go to run and shut down
	NatsSubscriber *pktNats.Subscriber
	NatsPublisher  *pktNats.Publisher
	Cache          *cache.TieredStore
	Logger         logger.ILogger
	Config         *config.Config
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Cache tiers: in-process LRU in front of Redis
	var l2 cache.Remote
	var redisClient *redis.Client
	if cfg.App.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Invalid REDIS_URL, running L1-only: %v", err)
		} else {
			redisClient = redis.NewClient(opts)
			l2 = cache.NewRedisRemote(redisClient)
		}
	}
	store := cache.NewTieredStore(cfg.Cache.L1Capacity, l2, cache.TTLConfig{
		Embedding: cfg.Cache.EmbeddingTTL,
		Speech:    cfg.Cache.SpeechTTL,
		Response:  cfg.Cache.ResponseTTL,
		Search:    cfg.Cache.SearchTTL,
	}, cfg.Cache.SweepInterval, sysLogger)

	// 3. Providers, each fronted by the cache where results are stable
	embeddingProvider := embedding.NewCachedProvider(
		embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, ""),
		store, sysLogger,
	)
	log.Printf("[INFO] Using embedding provider: %s", cfg.Ai.EmbeddingProvider)

	var llmProvider llm.Provider = llmOllama.NewProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.LLMModel)
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var transcriber transcription.Transcriber
	if cfg.Ai.WhisperURL != "" {
		transcriber = transcription.NewCachedTranscriber(
			transcription.NewWhisperProvider(cfg.Ai.WhisperURL),
			store,
		)
	}

	// 4. Retrieval engine over the artifact store and the web
	sources := service.NewRetrievalSources(uowFactory)
	var web retrieval.WebSearcher
	if cfg.Retrieval.WebSearchURL != "" {
		web = websearch.NewClient(cfg.Retrieval.WebSearchURL, cfg.Retrieval.SubSearchTimeout)
	}
	params := retrieval.NewParams(retrieval.DefaultFusionParams())
	engine := retrieval.NewEngine(
		retrieval.EngineConfig{
			Strategy:         retrieval.Strategy(cfg.Retrieval.Strategy),
			SubSearchTimeout: cfg.Retrieval.SubSearchTimeout,
			TokenBudget:      cfg.Retrieval.TokenBudget,
		},
		embeddingProvider,
		sources, sources, sources, web,
		store, params, sysLogger,
	)

	// 5. Memory and routing
	memoryBuilder := memory.NewBuilder(
		service.NewMessageSource(uowFactory),
		service.NewPreferenceSource(uowFactory, sysLogger),
		embeddingProvider,
		cfg.Pipeline.RecentTurnLimit,
		cfg.Pipeline.LongTermWindow,
		sysLogger,
	)

	var classifier router.Classifier
	if cfg.Ai.ClassifierEnabled {
		classifier = router.NewCachedClassifier(router.NewLLMClassifier(llmProvider), store)
	}
	agentRouter := router.New(classifier, sysLogger)

	// 6. Personas, retried on transient provider failures
	mentor := agent.NewRetrying(agent.NewMentor(llmProvider))
	muse := agent.NewRetrying(agent.NewMuse(llmProvider))
	discussion := agent.NewDiscussion(mentor, muse, llmProvider)

	// 7. Event bus and checkpoints
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect NATS publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect NATS subscriber: %v", err)
	}

	progressBus := workflow.NewProgressBus()
	progress := workflow.NewWatermillEmitter(progressBus, cfg.Pipeline.ProgressTopic, sysLogger)

	// Mirror stage progress onto NATS so clients outside the worker can
	// follow a run.
	if natsPub != nil {
		progressMsgs, err := progressBus.Subscribe(context.Background(), cfg.Pipeline.ProgressTopic)
		if err != nil {
			log.Printf("[WARN] Failed to subscribe progress bus, progress stays in-process: %v", err)
		} else {
			go workflow.ForwardProgress(progressMsgs, natsPub, sysLogger)
		}
	}

	var checkpoints workflow.CheckpointStore
	if redisClient != nil {
		checkpoints = workflow.NewRedisCheckpointStore(redisClient, cfg.Pipeline.CheckpointTTL)
	} else {
		checkpoints = workflow.NewMemoryCheckpointStore(cfg.Pipeline.CheckpointTTL)
	}

	// 8. Pipeline
	historyService := service.NewHistoryService(uowFactory, embeddingProvider, store, sysLogger)
	orchestrator, err := workflow.NewOrchestrator(
		workflow.Config{
			ShortInputRunes: cfg.Pipeline.ShortInputRunes,
			RecentTurnLimit: cfg.Pipeline.RecentTurnLimit,
		},
		transcriber,
		engine,
		memoryBuilder,
		agentRouter,
		mentor, muse, discussion,
		historyService,
		checkpoints,
		progress,
		sysLogger,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to compile pipeline graph: %v", err)
	}

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	pipelineService := service.NewPipelineService(orchestrator, eventPublisher, sysLogger)

	return &Container{
		PipelineService: pipelineService,
		NatsSubscriber:  natsSub,
		NatsPublisher:   natsPub,
		Cache:           store,
		Logger:          sysLogger,
		Config:          cfg,
	}
}
