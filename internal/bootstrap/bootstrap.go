package bootstrap

import (
	"context"
	"fmt"

	"github.com/finsightlabs/finsight/internal/config"
	"github.com/finsightlabs/finsight/internal/core/ports"
	"github.com/finsightlabs/finsight/internal/core/usecase"
	"github.com/finsightlabs/finsight/internal/infrastructure/chunking"
	"github.com/finsightlabs/finsight/internal/infrastructure/extractor"
	"github.com/finsightlabs/finsight/internal/infrastructure/extractor/excel"
	pdfextractor "github.com/finsightlabs/finsight/internal/infrastructure/extractor/pdf"
	"github.com/finsightlabs/finsight/internal/infrastructure/extractor/plaintext"
	"github.com/finsightlabs/finsight/internal/infrastructure/llm/ollama"
	"github.com/finsightlabs/finsight/internal/infrastructure/queue/nats"
	"github.com/finsightlabs/finsight/internal/infrastructure/rerank"
	"github.com/finsightlabs/finsight/internal/infrastructure/repository/postgres"
	"github.com/finsightlabs/finsight/internal/infrastructure/resilience"
	"github.com/finsightlabs/finsight/internal/infrastructure/storage/localfs"
	"github.com/finsightlabs/finsight/internal/infrastructure/tools"
	"github.com/finsightlabs/finsight/internal/infrastructure/vector/flat"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.DocumentRepository
	Sessions ports.SessionStore

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ChatUC    ports.ChatService
	KPIUC     ports.KPIReportService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	sessions := postgres.NewSessionRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	reranker := rerank.New(cfg.RerankerURL, executor)

	indexes := flat.NewManager(cfg.IndexPath)
	chunker := chunking.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.SectionAware)
	extractors := extractor.NewSelector(
		plaintext.NewExtractor(storage),
		pdfextractor.NewExtractor(storage),
		excel.NewExtractor(storage),
	)

	registry := tools.NewRegistry(
		tools.NewWebSearchTool(cfg.SearchBaseURL, cfg.ToolRateLimit, executor),
		tools.NewGDPTool(cfg.GDPBaseURL, cfg.ToolRateLimit, executor),
		tools.NewFinanceTool(cfg.QuoteBaseURL, cfg.ToolRateLimit, executor),
	)

	pipeline := usecase.NewRetrievalPipeline(embedder, reranker, cfg.RetrievalTopK, cfg.RerankTopK)
	router := usecase.NewQueryRouter(generator, registry)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractors, chunker, embedder, indexes)
	chatUC := usecase.NewChatUseCase(router, pipeline, generator, registry, indexes)
	kpiUC := usecase.NewKPIReportUseCase(pipeline, generator, indexes)

	return &App{
		Config:   cfg,
		Queue:    queue,
		Repo:     repo,
		Sessions: sessions,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ChatUC:    chatUC,
		KPIUC:     kpiUC,

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
