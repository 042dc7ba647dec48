package usecase

import (
	"context"
	"fmt"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

type documentIngester interface {
	Ingest(ctx context.Context, documentID, source, rawText string) (int, error)
}

// IndexDocumentUseCase drives a registered document through extraction
// and ingestion, tracking status transitions on the way. Failures leave
// the document in failed status with the cause recorded.
type IndexDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	ingester  documentIngester
}

func NewIndexDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	ingester documentIngester,
) *IndexDocumentUseCase {
	return &IndexDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		ingester:  ingester,
	}
}

// IndexByID returns the number of chunks admitted to the indexes so
// callers can report throughput without re-reading the document row.
func (uc *IndexDocumentUseCase) IndexByID(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusIndexing, ""); err != nil {
		return 0, fmt.Errorf("set status=indexing: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, uc.markFailed(ctx, documentID, fmt.Errorf("extract text: %w", err))
	}

	chunks, err := uc.ingester.Ingest(ctx, doc.ID, doc.Source, text)
	if err != nil {
		return 0, uc.markFailed(ctx, documentID, err)
	}

	return chunks, nil
}

func (uc *IndexDocumentUseCase) markFailed(ctx context.Context, documentID string, cause error) error {
	if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, cause.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, failErr)
	}
	return cause
}
