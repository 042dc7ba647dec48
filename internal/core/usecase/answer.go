package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
	"github.com/docsift/docsift/internal/core/stats"
)

type AnswerConfig struct {
	RetrievalTopK     int
	FusionTopN        int
	Weights           FusionWeights
	Confidence        ConfidenceWeights
	MaxPromptTokens   int
	MaxAnswerTokens   int
	GenerationTimeout time.Duration
	CacheTTL          time.Duration
}

// AnswerUseCase runs the full question pipeline: cache lookup, hybrid
// retrieval, fusion, budgeted prompt assembly, generation and grading.
// Cache, grade store and query expander are optional collaborators.
type AnswerUseCase struct {
	embedder  ports.Embedder
	vectors   ports.VectorStore
	lexical   ports.LexicalIndex
	generator ports.TextGenerator
	cache     ports.AnswerCache
	grades    ports.GradeStore
	expander  *QueryExpander
	prompts   promptBuilder
	tracker   *stats.Tracker
	cfg       AnswerConfig
}

func NewAnswerUseCase(
	embedder ports.Embedder,
	vectors ports.VectorStore,
	lexical ports.LexicalIndex,
	generator ports.TextGenerator,
	counter ports.TokenCounter,
	tracker *stats.Tracker,
	cfg AnswerConfig,
) *AnswerUseCase {
	return &AnswerUseCase{
		embedder:  embedder,
		vectors:   vectors,
		lexical:   lexical,
		generator: generator,
		prompts:   newPromptBuilder(counter, cfg.MaxPromptTokens),
		tracker:   tracker,
		cfg:       cfg,
	}
}

func (uc *AnswerUseCase) WithCache(cache ports.AnswerCache) *AnswerUseCase {
	uc.cache = cache
	return uc
}

func (uc *AnswerUseCase) WithGrades(grades ports.GradeStore) *AnswerUseCase {
	uc.grades = grades
	return uc
}

func (uc *AnswerUseCase) WithExpander(expander *QueryExpander) *AnswerUseCase {
	uc.expander = expander
	return uc
}

// Answer never returns an error; failures come back as a result with the
// Error field set. Every outcome, including failures and cache hits, is
// folded into the rolling metrics.
func (uc *AnswerUseCase) Answer(ctx context.Context, question string) domain.AnswerResult {
	started := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return uc.fail(started, question, "validate question",
			fmt.Errorf("%w: empty question", domain.ErrInvalidInput))
	}

	if cached, ok := uc.cachedAnswer(ctx, question); ok {
		cached.ResponseTime = time.Since(started).Seconds()
		uc.tracker.Record(cached)
		return cached
	}

	candidates, err := uc.retrieve(ctx, question)
	if err != nil {
		return uc.fail(started, question, "retrieve context", err)
	}

	if len(candidates) == 0 {
		result := domain.AnswerResult{
			Question:     question,
			Answer:       domain.NoContextAnswer,
			ResponseTime: time.Since(started).Seconds(),
		}
		uc.tracker.Record(result)
		return result
	}

	prompt := uc.prompts.build(question, candidates)

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerationTimeout)
	defer cancel()
	answer, err := uc.generator.Generate(genCtx, prompt.text, domain.GenerationOptions{
		Temperature: uc.tracker.Temperature(),
		MaxTokens:   uc.cfg.MaxAnswerTokens,
	})
	if err != nil {
		return uc.fail(started, question, "generate answer", err)
	}

	relevance, confidence := scoreAnswer(answer, prompt.used, uc.cfg.Confidence)
	result := domain.AnswerResult{
		Question:        question,
		Answer:          answer,
		RelevanceScore:  relevance,
		ConfidenceScore: confidence,
		Citations:       citations(prompt.used),
		ResponseTime:    time.Since(started).Seconds(),
	}

	uc.persistGrade(ctx, result)
	uc.storeCache(ctx, question, result)
	uc.tracker.Record(result)
	return result
}

// retrieve runs dense and lexical search concurrently for the question
// and any expansion variants, then fuses the merged result sets.
func (uc *AnswerUseCase) retrieve(ctx context.Context, question string) ([]domain.RetrievalCandidate, error) {
	queries := []string{question}
	if uc.expander != nil {
		queries = append(queries, uc.expander.Expand(ctx, question)...)
	}

	denseLists := make([][]domain.ScoredChunk, len(queries))
	lexicalLists := make([][]domain.ScoredChunk, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			vector, err := uc.embedder.EmbedQuery(gctx, query)
			if err != nil {
				return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed query", err)
			}
			hits, err := uc.vectors.Search(gctx, vector, uc.cfg.RetrievalTopK)
			if err != nil {
				return fmt.Errorf("search vectors: %w", err)
			}
			denseLists[i] = hits
			return nil
		})
		g.Go(func() error {
			lexicalLists[i] = uc.lexical.Search(query, uc.cfg.RetrievalTopK)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dense := mergeScoredChunks(denseLists...)
	lexical := mergeScoredChunks(lexicalLists...)
	return fuseCandidates(dense, lexical, uc.cfg.Weights, uc.cfg.FusionTopN), nil
}

func (uc *AnswerUseCase) cachedAnswer(ctx context.Context, question string) (domain.AnswerResult, bool) {
	if uc.cache == nil {
		return domain.AnswerResult{}, false
	}
	result, err := uc.cache.Get(ctx, question)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			slog.Warn("answer_cache_read_failed", "error", err)
		}
		return domain.AnswerResult{}, false
	}
	result.Cached = true
	return result, true
}

func (uc *AnswerUseCase) storeCache(ctx context.Context, question string, result domain.AnswerResult) {
	if uc.cache == nil || result.Failed() {
		return
	}
	if err := uc.cache.Set(ctx, question, result, uc.cfg.CacheTTL); err != nil {
		slog.Warn("answer_cache_store_failed", "error", err)
	}
}

func (uc *AnswerUseCase) persistGrade(ctx context.Context, result domain.AnswerResult) {
	if uc.grades == nil {
		return
	}
	grade := domain.AnswerGrade{
		ID:              uuid.NewString(),
		Question:        result.Question,
		Answer:          result.Answer,
		RelevanceScore:  result.RelevanceScore,
		ConfidenceScore: result.ConfidenceScore,
		CreatedAt:       time.Now().UTC(),
	}
	if err := uc.grades.Save(ctx, grade); err != nil {
		slog.Warn("answer_grade_save_failed", "error", err)
	}
}

func (uc *AnswerUseCase) fail(started time.Time, question, stage string, err error) domain.AnswerResult {
	result := domain.AnswerResult{
		Question:     question,
		Error:        fmt.Sprintf("%s: %v", stage, err),
		ResponseTime: time.Since(started).Seconds(),
	}
	uc.tracker.Record(result)
	return result
}
