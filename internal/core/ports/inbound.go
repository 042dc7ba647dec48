package ports

import (
	"context"
	"io"

	"github.com/docsift/docsift/internal/core/domain"
)

// DocumentRegistrar is the inbound contract for document intake: store the
// payload, create the registry row, enqueue indexing.
type DocumentRegistrar interface {
	Register(ctx context.Context, source string, body io.Reader) (*domain.Document, error)
}

// DocumentIngestor is the inbound contract for core ingestion. Ingest is
// idempotent per unchanged document and returns the number of chunks
// newly indexed; on an index-write fault it returns the partial count.
type DocumentIngestor interface {
	Ingest(ctx context.Context, documentID, source, rawText string) (int, error)
}

// DocumentIndexer drives the full pipeline for a registered document:
// load, extract, ingest, mark ready or failed. It reports the number of
// chunks admitted to the indexes.
type DocumentIndexer interface {
	IndexByID(ctx context.Context, documentID string) (int, error)
}

// QuestionAnswerer runs the retrieval pipeline. Failures are reported in
// AnswerResult.Error, never as a panic.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string) domain.AnswerResult
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// MetricsSource exposes rolling pipeline statistics as copy-on-read
// snapshots.
type MetricsSource interface {
	Snapshot() domain.MetricsSnapshot
}
