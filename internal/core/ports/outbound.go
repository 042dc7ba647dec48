package ports

import (
	"context"
	"io"
	"time"

	"github.com/docsift/docsift/internal/core/domain"
)

// DocumentRepository persists document state plus the per-document chunk
// hash sets behind idempotent re-ingestion.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetIngestResult(ctx context.Context, id string, contentHash string, chunkCount int) error
	ChunkHashes(ctx context.Context, documentID string) (map[string]struct{}, error)
	SaveChunkHashes(ctx context.Context, documentID string, chunks []domain.Chunk) error
	ClearChunkHashes(ctx context.Context, documentID string) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document registration events.
type MessageQueue interface {
	PublishDocumentRegistered(ctx context.Context, documentID string) error
	SubscribeDocumentRegistered(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits normalized document text into overlapping, deduplicated
// chunks with stable identifiers.
type Chunker interface {
	Chunk(documentID, source, text string) []domain.Chunk
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunk embeddings and performs similarity search,
// highest similarity first.
type VectorStore interface {
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.ScoredChunk, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// LexicalIndex ranks chunks by keyword match. Mutation is serialized by
// the implementation; Search results are deterministic with ties broken
// by chunk id ascending.
type LexicalIndex interface {
	Index(chunks []domain.Chunk)
	Remove(documentID string)
	Search(question string, limit int) []domain.ScoredChunk
}

// TextGenerator produces completions from the language model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error)
}

// AnswerCache stores answers for repeated questions. Get returns
// domain.ErrCacheMiss when the question has no cached answer.
type AnswerCache interface {
	Get(ctx context.Context, question string) (domain.AnswerResult, error)
	Set(ctx context.Context, question string, result domain.AnswerResult, ttl time.Duration) error
}

// GradeStore persists answer quality grades.
type GradeStore interface {
	Save(ctx context.Context, grade domain.AnswerGrade) error
	Recent(ctx context.Context, limit int) ([]domain.AnswerGrade, error)
}

// TokenCounter reports model token counts for budget decisions.
type TokenCounter interface {
	Count(text string) int
}
