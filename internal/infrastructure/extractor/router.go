// Package extractor turns stored source documents into plain text for
// the ingestion pipeline.
package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

// Router picks the text extractor for a document by its source file
// extension. Unknown extensions fall through to plaintext.
type Router struct {
	storage ports.ObjectStorage
}

func NewRouter(storage ports.ObjectStorage) *Router {
	return &Router{storage: storage}
}

func (r *Router) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := r.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(doc.Source)) {
	case ".pdf":
		return extractPDF(raw)
	case ".xlsx", ".xlsm":
		return extractWorkbook(raw)
	default:
		return extractPlaintext(raw, doc.Source)
	}
}
