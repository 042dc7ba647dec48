package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/core/ports"
	"github.com/docsift/docsift/internal/core/stats"
	"github.com/docsift/docsift/internal/core/usecase"
	rediscache "github.com/docsift/docsift/internal/infrastructure/cache/redis"
	"github.com/docsift/docsift/internal/infrastructure/chunking"
	"github.com/docsift/docsift/internal/infrastructure/extractor"
	"github.com/docsift/docsift/internal/infrastructure/lexical"
	"github.com/docsift/docsift/internal/infrastructure/llm/ollama"
	"github.com/docsift/docsift/internal/infrastructure/queue/nats"
	"github.com/docsift/docsift/internal/infrastructure/repository/postgres"
	"github.com/docsift/docsift/internal/infrastructure/resilience"
	"github.com/docsift/docsift/internal/infrastructure/storage/localfs"
	"github.com/docsift/docsift/internal/infrastructure/token"
	"github.com/docsift/docsift/internal/infrastructure/vector/qdrant"
)

// expansionTemperature stays low so variants rephrase the question
// instead of drifting into new ones.
const expansionTemperature = 0.3

// App holds the wired pipeline. Binaries pick the ports they serve;
// everything shares one tracker so ingestion counters and answer
// statistics land in the same snapshot.
type App struct {
	Config config.Config

	Queue     *nats.Queue
	Documents ports.DocumentRepository
	Grades    ports.GradeStore
	Tracker   *stats.Tracker

	Register ports.DocumentRegistrar
	Index    ports.DocumentIndexer
	Ingest   ports.DocumentIngestor
	Answer   ports.QuestionAnswerer

	db      *sql.DB
	llm     *ollama.Client
	vectors *qdrant.Client
	cache   *rediscache.AnswerCache

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	if err := documents.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	grades := postgres.NewGradeRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queueExecutor := resilience.NewExecutor(resilience.QuickPublishConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: queueExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llmExecutor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.LLMMaxAttempts,
		RetryInitialBackoff: cfg.LLMBackoffBase,
		BreakerEnabled:      true,
	})
	llmClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		Timeout:            cfg.GenerationTimeout,
		ResilienceExecutor: llmExecutor,
		RequestsPerSecond:  cfg.LLMRateLimitRPS,
	})
	embedder := ollama.NewEmbedder(llmClient)
	generator := ollama.NewGenerator(llmClient)

	vectors := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	searchIndex := lexical.NewIndex(cfg.BM25K1, cfg.BM25B, cfg.LexicalStopwords)
	counter := token.NewCodec("")

	unit := chunking.Unit(cfg.ChunkUnit)
	var codec chunking.Codec
	if unit == chunking.UnitTokens {
		if counter.Ready() {
			codec = counter
		} else {
			slog.Warn("token_codec_unavailable", "fallback_unit", chunking.UnitRunes)
			unit = chunking.UnitRunes
		}
	}
	splitter, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, unit, codec)
	if err != nil {
		return nil, fmt.Errorf("init splitter: %w", err)
	}

	tracker := stats.NewTracker(cfg.TemperatureInitial, cfg.MetricsWindow, stats.Controller{
		Window:        cfg.AdaptiveWindow,
		LowThreshold:  cfg.TemperatureLowThreshold,
		HighThreshold: cfg.TemperatureHighThreshold,
		Step:          cfg.TemperatureStep,
		Min:           cfg.TemperatureMin,
		Max:           cfg.TemperatureMax,
	})

	ingest := usecase.NewIngestUseCase(documents, splitter, embedder, vectors, searchIndex, tracker, cfg.IndexBatchSize)
	register := usecase.NewRegisterDocumentUseCase(documents, storage, queue)
	index := usecase.NewIndexDocumentUseCase(documents, extractor.NewRouter(storage), ingest)

	answer := usecase.NewAnswerUseCase(embedder, vectors, searchIndex, generator, counter, tracker, usecase.AnswerConfig{
		RetrievalTopK:     cfg.RetrievalTopK,
		FusionTopN:        cfg.FusionTopN,
		Weights:           usecase.FusionWeights{Dense: cfg.FusionDenseWeight, Lexical: cfg.FusionLexicalWeight},
		Confidence:        usecase.ConfidenceWeights{Relevance: cfg.ConfidenceRelevanceWeight, Overlap: cfg.ConfidenceOverlapWeight},
		MaxPromptTokens:   cfg.MaxPromptTokens,
		MaxAnswerTokens:   cfg.MaxAnswerTokens,
		GenerationTimeout: cfg.GenerationTimeout,
		CacheTTL:          cfg.AnswerCacheTTL,
	}).WithGrades(grades)

	var cache *rediscache.AnswerCache
	if cfg.RedisAddr != "" {
		cache, err = rediscache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("init answer cache: %w", err)
		}
		answer = answer.WithCache(cache)
	}
	if cfg.ExpansionEnabled {
		answer = answer.WithExpander(usecase.NewQueryExpander(generator, cfg.ExpansionMaxVariants, expansionTemperature))
	}

	return &App{
		Config: cfg,

		Queue:     queue,
		Documents: documents,
		Grades:    grades,
		Tracker:   tracker,

		Register: register,
		Index:    index,
		Ingest:   ingest,
		Answer:   answer,

		db:      db,
		llm:     llmClient,
		vectors: vectors,
		cache:   cache,

		closeFn: func() {
			queue.Close()
			if cache != nil {
				_ = cache.Close()
			}
			_ = db.Close()
		},
	}, nil
}

// Health pings every wired backend and joins the failures, so one call
// tells an operator which dependency is down.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if err := a.db.PingContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("postgres: %w", err))
	}
	if err := a.Queue.Health(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.llm.Health(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.vectors.Health(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.cache != nil {
		if err := a.cache.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
