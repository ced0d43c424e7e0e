package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akulagin/rag-workbench/internal/config"
	"github.com/akulagin/rag-workbench/internal/core/ports"
	"github.com/akulagin/rag-workbench/internal/core/usecase"
	"github.com/akulagin/rag-workbench/internal/infrastructure/archive"
	"github.com/akulagin/rag-workbench/internal/infrastructure/chunking"
	"github.com/akulagin/rag-workbench/internal/infrastructure/llm/ollama"
	"github.com/akulagin/rag-workbench/internal/infrastructure/queue/nats"
	"github.com/akulagin/rag-workbench/internal/infrastructure/repository/postgres"
	"github.com/akulagin/rag-workbench/internal/infrastructure/resilience"
	"github.com/akulagin/rag-workbench/internal/infrastructure/storage/localfs"
	"github.com/akulagin/rag-workbench/internal/infrastructure/vector/qdrant"
	"github.com/akulagin/rag-workbench/internal/observability/logging"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue       ports.MessageQueue
	Sources     ports.SourceRepository
	Collections ports.CollectionRepository

	IngestUC    ports.SourceIngestor
	ProcessUC   ports.SourceProcessor
	QueryUC     ports.QueryService
	SelfCheckUC ports.SelfChecker

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sources := postgres.NewSourceRepository(db)
	if err := sources.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	collections := postgres.NewCollectionRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	vectorDB := qdrant.New(cfg.QdrantURL)

	embedTimeout := time.Duration(cfg.EmbedTimeoutSeconds) * time.Second
	retrieveTimeout := time.Duration(cfg.RetrieveTimeoutSeconds) * time.Second
	generateTimeout := time.Duration(cfg.GenerateTimeoutSeconds) * time.Second

	ingestUC := usecase.NewIngestSourceUseCase(sources, storage, queue)

	// The indexing pipeline runs behind retries and a circuit breaker; the
	// self-check path calls the embedder directly so a verdict always
	// reflects the first resample.
	processUC := usecase.NewProcessSourceUseCase(
		sources,
		collections,
		archive.NewExtractor(storage),
		chunking.NewSet(chunking.Config{
			ChunkSize: cfg.ChunkSize,
			Overlap:   cfg.ChunkOverlap,
		}),
		ollama.NewResilientEmbedder(embedder, resilience.NewExecutor(resilience.IndexingConfig())),
		vectorDB,
		usecase.ProcessConfig{
			EmbedModel:   cfg.OllamaEmbedModel,
			EmbedBatch:   cfg.EmbedBatch,
			EmbedTimeout: embedTimeout,
			IndexTimeout: generateTimeout,
		},
		logger,
	)

	queryUC := usecase.NewQueryUseCase(collections, embedder, vectorDB, generator, usecase.QueryConfig{
		RetrievalMode:    cfg.RAGRetrievalMode,
		DefaultTopK:      cfg.RAGTopK,
		HybridCandidates: cfg.RAGHybridCandidates,
		FusionRRFK:       cfg.RAGFusionRRFK,
		RerankTopN:       cfg.RAGRerankTopN,
		EmbedTimeout:     embedTimeout,
		RetrieveTimeout:  retrieveTimeout,
		GenerateTimeout:  generateTimeout,
	})

	sampler := usecase.NewSampleUseCase(collections, embedder, vectorDB, generator, usecase.SampleConfig{
		Temperature:     cfg.SelfCheckTemperature,
		DefaultTopK:     cfg.RAGTopK,
		EmbedTimeout:    embedTimeout,
		RetrieveTimeout: retrieveTimeout,
		GenerateTimeout: generateTimeout,
	})
	scorer := usecase.NewEmbeddingScorer(embedder, embedTimeout)
	selfCheckUC := usecase.NewSelfCheckUseCase(sampler, scorer, usecase.SelfCheckConfig{
		Threshold: cfg.SelfCheckThreshold,
	})

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:       queue,
		Sources:     sources,
		Collections: collections,

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		QueryUC:     queryUC,
		SelfCheckUC: selfCheckUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
