// Package memory holds an in-process document registry for library
// callers who embed the pipeline without Postgres. Data is lost on
// restart, so chunk-hash idempotence only holds within one process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docsift/docsift/internal/core/domain"
)

type DocumentRepository struct {
	mu     sync.RWMutex
	docs   map[string]domain.Document
	hashes map[string]map[string]struct{}
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		docs:   make(map[string]domain.Document),
		hashes: make(map[string]map[string]struct{}),
	}
}

func (r *DocumentRepository) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return fmt.Errorf("insert document: duplicate id %s", doc.ID)
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("get document by id: %w: id=%s", domain.ErrDocumentNotFound, id)
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("update document status: %w: id=%s", domain.ErrDocumentNotFound, id)
	}
	doc.Status = status
	doc.Error = errMessage
	r.docs[id] = doc
	return nil
}

func (r *DocumentRepository) SetIngestResult(_ context.Context, id string, contentHash string, chunkCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("set ingest result: %w: id=%s", domain.ErrDocumentNotFound, id)
	}
	doc.ContentHash = contentHash
	doc.ChunkCount = chunkCount
	doc.Status = domain.StatusReady
	doc.Error = ""
	doc.IngestedAt = time.Now().UTC()
	r.docs[id] = doc
	return nil
}

func (r *DocumentRepository) ChunkHashes(_ context.Context, documentID string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.hashes[documentID]))
	for hash := range r.hashes[documentID] {
		out[hash] = struct{}{}
	}
	return out, nil
}

func (r *DocumentRepository) SaveChunkHashes(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.hashes[documentID]
	if set == nil {
		set = make(map[string]struct{}, len(chunks))
		r.hashes[documentID] = set
	}
	for _, chunk := range chunks {
		set[chunk.Hash] = struct{}{}
	}
	return nil
}

func (r *DocumentRepository) ClearChunkHashes(_ context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hashes, documentID)
	return nil
}
