package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"legal-indexer-be/internal/config"
	"legal-indexer-be/internal/controller"
	"legal-indexer-be/internal/handler"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/pkg/mailer"
	"legal-indexer-be/internal/repository/memory"
	"legal-indexer-be/internal/repository/unitofwork"
	"legal-indexer-be/internal/service"
	"legal-indexer-be/internal/websocket"
	"legal-indexer-be/pkg/ai/analyzer"
	"legal-indexer-be/pkg/ai/pipeline"
	"legal-indexer-be/pkg/chunker"
	"legal-indexer-be/pkg/embedding"
	"legal-indexer-be/pkg/fetcher"
	"legal-indexer-be/pkg/llm"
	"legal-indexer-be/pkg/llm/factory"
	pktNats "legal-indexer-be/pkg/nats"
	"legal-indexer-be/pkg/rag/search"
	"legal-indexer-be/pkg/resilience"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	IndexController  controller.IIndexController
	FlagController   controller.IFlagController
	JobController    controller.IJobController
	SystemController controller.ISystemController
	JobStreamHandler *handler.JobStreamHandler

	// Background services, started by main
	JobService      service.IJobService
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// Dependencies are the collaborators a Container is assembled from. Optional
// ones (EventPublisher, Redis, Mailer) may be nil.
type Dependencies struct {
	RepoFactory    unitofwork.RepositoryFactory
	Fetcher        pipeline.DocumentFetcher
	Embedder       embedding.EmbeddingProvider
	LLM            llm.LLMProvider
	Logger         logger.ILogger
	EventPublisher service.EventPublisher
	Redis          *redis.Client
	Mailer         mailer.IEmailService
}

// NewContainer builds the production dependency graph. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	deps := Dependencies{Logger: sysLogger}
	var closers []func()

	// 1. Store
	if db != nil {
		deps.RepoFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] DB_CONNECTION_STRING not set, using in-memory store")
		deps.RepoFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	// 2. Collaborators, each behind the retry/timeout policy
	inferencePolicy := newPolicy(cfg, sysLogger, cfg.Pipeline.RequestsPerSecond)
	fetchPolicy := newPolicy(cfg, sysLogger, 0)

	embedder, err := embedding.NewEmbeddingProvider(embedding.FactoryConfig{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         cfg.Ai.EmbeddingModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OpenAIKey:     cfg.Ai.OpenAIKey,
		BatchSize:     cfg.Ai.EmbeddingBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	deps.Embedder = embedding.NewRetryingProvider(embedder, inferencePolicy)
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OpenAIKey:     cfg.Ai.OpenAIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	deps.LLM = llm.NewRetryingProvider(llmProvider, inferencePolicy)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	deps.Fetcher = fetcher.NewFetcher(fetcher.Config{
		Timeout:  cfg.Ai.FetchTimeout,
		MaxBytes: cfg.Ai.FetchMaxBytes,
	}, fetchPolicy, sysLogger)

	// 3. Infrastructure
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] NATS publisher: %v", err)
		}
		if natsPub != nil {
			deps.EventPublisher = natsPub
			closers = append(closers, natsPub.Close)
		}
	}

	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		cancel()
		deps.Redis = rdb
		closers = append(closers, func() { rdb.Close() })
	}

	if cfg.SMTP.Host != "" {
		deps.Mailer = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.SMTP.SenderName,
		)
	}

	c, err := Build(cfg, deps)
	if err != nil {
		for _, closeFn := range closers {
			closeFn()
		}
		return nil, err
	}
	c.closers = append(c.closers, closers...)
	return c, nil
}

// Build wires services and controllers around deps.
func Build(cfg *config.Config, deps Dependencies) (*Container, error) {
	sysLogger := deps.Logger

	chunk, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	// Job dispatch topic
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)

	jobCache := memory.NewJobCache(cfg.Pipeline.JobCacheTTL)
	jobService := service.NewJobService(deps.RepoFactory, pubSub, cfg.Pipeline.JobTopic, jobCache, sysLogger)
	consumerService := service.NewConsumerService(pubSub, cfg.Pipeline.JobTopic, jobService, sysLogger)

	// Observers
	wsHub := websocket.NewHub(deps.Redis, sysLogger)
	jobService.AddObserver(wsHub)
	if deps.EventPublisher != nil {
		jobService.AddObserver(service.NewEventObserver(deps.EventPublisher, sysLogger))
	}
	if deps.Mailer != nil && len(cfg.App.NotifyEmails) > 0 {
		jobService.AddObserver(service.NewFlagSummaryObserver(deps.Mailer, cfg.App.NotifyEmails, sysLogger))
	}

	// Pipelines
	ingestor := pipeline.NewIngestor(
		deps.Fetcher,
		chunk,
		deps.Embedder,
		deps.RepoFactory,
		pipeline.IngestConfig{
			Concurrency:        cfg.Pipeline.Concurrency,
			EmbeddingBatchSize: cfg.Ai.EmbeddingBatchSize,
			MaxEmbedChars:      cfg.Ai.MaxEmbedChars,
		},
		sysLogger,
	)

	retriever := search.NewOrchestrator(deps.Embedder, search.Config{
		SemanticCeiling: cfg.Retrieval.SemanticCeiling,
	}, sysLogger)

	docAnalyzer := analyzer.NewAnalyzer(deps.LLM, analyzer.Config{
		ValidationModel:      cfg.Ai.ValidationModel,
		ValidationExcerptLen: cfg.Ai.ValidationExcerptLen,
		AnalysisExcerptLen:   cfg.Ai.AnalysisExcerptLen,
	}, sysLogger)

	flagPipeline := pipeline.NewFlagPipeline(
		retriever,
		docAnalyzer,
		docAnalyzer,
		deps.RepoFactory,
		pipeline.FlagConfig{Concurrency: cfg.Pipeline.Concurrency},
		sysLogger,
	)

	// Services
	indexService := service.NewIndexService(jobService, ingestor, sysLogger)
	flagService := service.NewFlagService(jobService, flagPipeline, deps.RepoFactory, cfg.Retrieval.DefaultThreshold, sysLogger)
	systemService := service.NewSystemService(deps.RepoFactory, jobService, sysLogger)

	return &Container{
		IndexController:  controller.NewIndexController(indexService),
		FlagController:   controller.NewFlagController(flagService),
		JobController:    controller.NewJobController(jobService),
		SystemController: controller.NewSystemController(systemService, cfg.App.AdminJWTSecret),
		JobStreamHandler: handler.NewJobStreamHandler(jobService, wsHub, sysLogger),

		JobService:      jobService,
		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
		Logger:          sysLogger,

		closers: []func(){func() { pubSub.Close() }},
	}, nil
}

// Close releases connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if err := c.Logger.Sync(); err != nil {
		log.Printf("[WARN] logger sync: %v", err)
	}
}

func newPolicy(cfg *config.Config, sysLogger logger.ILogger, rps float64) *resilience.Policy {
	return resilience.NewPolicy(resilience.Config{
		Timeout:           cfg.Pipeline.CallTimeout,
		MaxTries:          cfg.Pipeline.MaxRetries,
		InitialInterval:   cfg.Pipeline.InitialBackoff,
		MaxInterval:       10 * time.Second,
		RequestsPerSecond: rps,
		Burst:             cfg.Pipeline.Burst,
	}).OnRetry(func(op string, err error, next time.Duration) {
		sysLogger.Warn("Resilience", "Retrying collaborator call", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
			"retry_in":  next.String(),
		})
	})
}
