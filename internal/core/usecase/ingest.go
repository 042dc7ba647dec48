package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
	"github.com/docsift/docsift/internal/core/stats"
)

// IngestUseCase chunks document text and indexes the chunks in both
// retrieval stores. Ingestion is idempotent per chunk hash: re-running
// an unchanged document reports zero new chunks, a changed document is
// removed from both stores and indexed from scratch.
type IngestUseCase struct {
	repo     ports.DocumentRepository
	chunker  ports.Chunker
	embedder ports.Embedder
	vectors  ports.VectorStore
	lexical  ports.LexicalIndex
	tracker  *stats.Tracker
	batch    int
}

func NewIngestUseCase(
	repo ports.DocumentRepository,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	lexical ports.LexicalIndex,
	tracker *stats.Tracker,
	batchSize int,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &IngestUseCase{
		repo:     repo,
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		lexical:  lexical,
		tracker:  tracker,
		batch:    batchSize,
	}
}

// Ingest indexes rawText under documentID and returns how many chunks
// were newly indexed. On partial failure the count reflects the chunks
// that made it into the stores before the error.
func (uc *IngestUseCase) Ingest(ctx context.Context, documentID, source, rawText string) (int, error) {
	if strings.TrimSpace(documentID) == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("empty document id"))
	}
	normalized := domain.NormalizeText(rawText)
	if normalized == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("empty document text"))
	}
	contentHash := domain.HashText(normalized)

	existing, err := uc.repo.GetByID(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	chunks := uc.chunker.Chunk(documentID, source, rawText)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	if existing != nil && existing.ContentHash == contentHash && existing.Status == domain.StatusReady {
		// Unchanged document: no embedding work, but re-seed the
		// lexical index, which starts empty on every restart. Index
		// skips chunk ids it already holds.
		uc.lexical.Index(chunks)
		return 0, nil
	}

	known, err := uc.repo.ChunkHashes(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("load chunk hashes: %w", err)
	}

	// A changed document invalidates its previous chunks in both stores
	// before the new ones go in.
	if existing != nil && existing.ContentHash != "" && existing.ContentHash != contentHash {
		uc.lexical.Remove(documentID)
		if err := uc.vectors.DeleteByDocument(ctx, documentID); err != nil {
			return 0, fmt.Errorf("delete stale vectors: %w", err)
		}
		if err := uc.repo.ClearChunkHashes(ctx, documentID); err != nil {
			return 0, fmt.Errorf("clear chunk hashes: %w", err)
		}
		known = nil
	}

	fresh := chunks[:0:0]
	for _, chunk := range chunks {
		if _, ok := known[chunk.Hash]; ok {
			continue
		}
		fresh = append(fresh, chunk)
	}

	indexed := 0
	for start := 0; start < len(fresh); start += uc.batch {
		end := start + uc.batch
		if end > len(fresh) {
			end = len(fresh)
		}
		batch := fresh[start:end]

		if err := uc.indexBatch(ctx, documentID, batch); err != nil {
			return indexed, err
		}
		indexed += len(batch)
	}

	if err := uc.repo.SetIngestResult(ctx, documentID, contentHash, len(chunks)); err != nil {
		return indexed, fmt.Errorf("save ingest result: %w", err)
	}

	uc.tracker.RecordDocument(indexed)
	return indexed, nil
}

func (uc *IngestUseCase) indexBatch(ctx context.Context, documentID string, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return domain.WrapError(domain.ErrEmbeddingUnavailable, "embed chunks", err)
	}
	if len(vectors) != len(batch) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(batch)),
		)
	}

	records := make([]domain.EmbeddingRecord, len(batch))
	for i, chunk := range batch {
		records[i] = domain.EmbeddingRecord{Chunk: chunk, Vector: vectors[i]}
	}
	if err := uc.vectors.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}

	uc.lexical.Index(batch)

	if err := uc.repo.SaveChunkHashes(ctx, documentID, batch); err != nil {
		return fmt.Errorf("save chunk hashes: %w", err)
	}
	return nil
}
