package domain

import "time"

type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusIndexing DocumentStatus = "indexing"
	StatusReady    DocumentStatus = "ready"
	StatusFailed   DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	StoragePath string         `json:"storage_path"`
	ContentHash string         `json:"content_hash,omitempty"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	IngestedAt  time.Time      `json:"ingested_at,omitempty"`
}

// Chunk is the unit of indexing and retrieval: a bounded span of a
// document's normalized text. ID is derived from the owning document id
// and the window start offset, so re-chunking an unchanged document
// reproduces the same ids.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	Start      int    `json:"start"`
	Hash       string `json:"hash"`
}

type EmbeddingRecord struct {
	Chunk  Chunk
	Vector []float32
}
