package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsift/docsift/internal/core/domain"
)

type ingestRepoFake struct {
	doc        *domain.Document
	hashes     map[string]struct{}
	getErr     error
	hashesErr  error
	clearErr   error
	saveErr    error
	resultErr  error
	saved      [][]domain.Chunk
	cleared    int
	resultHash string
	resultN    int
}

func (f *ingestRepoFake) Create(context.Context, *domain.Document) error {
	return errors.New("not implemented")
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", errors.New("missing"))
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return errors.New("not implemented")
}

func (f *ingestRepoFake) SetIngestResult(_ context.Context, _ string, contentHash string, chunkCount int) error {
	if f.resultErr != nil {
		return f.resultErr
	}
	f.resultHash = contentHash
	f.resultN = chunkCount
	return nil
}

func (f *ingestRepoFake) ChunkHashes(context.Context, string) (map[string]struct{}, error) {
	if f.hashesErr != nil {
		return nil, f.hashesErr
	}
	return f.hashes, nil
}

func (f *ingestRepoFake) SaveChunkHashes(_ context.Context, _ string, chunks []domain.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, chunks)
	return nil
}

func (f *ingestRepoFake) ClearChunkHashes(context.Context, string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	return nil
}

type ingestChunkerFake struct {
	chunks []domain.Chunk
	calls  int
}

func (f *ingestChunkerFake) Chunk(string, string, string) []domain.Chunk {
	f.calls++
	return f.chunks
}

type ingestEmbedderFake struct {
	calls   int
	errOn   int
	lastLen int
}

func (f *ingestEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.lastLen = len(texts)
	if f.errOn > 0 && f.calls >= f.errOn {
		return nil, errors.New("embedder offline")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (f *ingestEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

type ingestVectorFake struct {
	upserts   [][]domain.EmbeddingRecord
	upsertErr error
	deleted   []string
	deleteErr error
}

func (f *ingestVectorFake) Upsert(_ context.Context, records []domain.EmbeddingRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, records)
	return nil
}

func (f *ingestVectorFake) Search(context.Context, []float32, int) ([]domain.ScoredChunk, error) {
	return nil, errors.New("not implemented")
}

func (f *ingestVectorFake) DeleteByDocument(_ context.Context, documentID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, documentID)
	return nil
}

type ingestLexicalFake struct {
	indexed [][]domain.Chunk
	removed []string
}

func (f *ingestLexicalFake) Index(chunks []domain.Chunk) {
	f.indexed = append(f.indexed, chunks)
}

func (f *ingestLexicalFake) Remove(documentID string) {
	f.removed = append(f.removed, documentID)
}

func (f *ingestLexicalFake) Search(string, int) []domain.ScoredChunk { return nil }

func ingestChunks(n int) []domain.Chunk {
	out := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		text := strings.Repeat(string(rune('a'+i)), 10)
		out = append(out, domain.Chunk{
			ID:         "doc-1:" + string(rune('0'+i)),
			DocumentID: "doc-1",
			Source:     "doc.txt",
			Text:       text,
			Hash:       domain.HashText(text),
		})
	}
	return out
}

func TestIngestNewDocument(t *testing.T) {
	repo := &ingestRepoFake{}
	chunker := &ingestChunkerFake{chunks: ingestChunks(3)}
	embedder := &ingestEmbedderFake{}
	vectors := &ingestVectorFake{}
	lexical := &ingestLexicalFake{}
	tracker := testTracker()
	uc := NewIngestUseCase(repo, chunker, embedder, vectors, lexical, tracker, 64)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "some document body")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 chunks indexed, got %d", n)
	}
	if len(vectors.upserts) != 1 || len(vectors.upserts[0]) != 3 {
		t.Fatalf("expected one upsert of 3 records, got %+v", vectors.upserts)
	}
	if len(lexical.indexed) != 1 {
		t.Fatalf("expected one lexical index call, got %d", len(lexical.indexed))
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected chunk hashes saved once, got %d", len(repo.saved))
	}
	if repo.resultN != 3 || repo.resultHash == "" {
		t.Fatalf("expected ingest result persisted, got n=%d hash=%q", repo.resultN, repo.resultHash)
	}
	snap := tracker.Snapshot()
	if snap.DocumentsProcessed != 1 || snap.ChunksIndexed != 3 {
		t.Fatalf("expected document metrics recorded, got %+v", snap)
	}
}

func TestIngestUnchangedDocumentSkipsEmbedding(t *testing.T) {
	body := "same document body"
	repo := &ingestRepoFake{doc: &domain.Document{
		ID:          "doc-1",
		ContentHash: domain.HashText(domain.NormalizeText(body)),
		Status:      domain.StatusReady,
	}}
	embedder := &ingestEmbedderFake{}
	vectors := &ingestVectorFake{}
	lexical := &ingestLexicalFake{}
	tracker := testTracker()
	uc := NewIngestUseCase(repo, &ingestChunkerFake{chunks: ingestChunks(3)}, embedder, vectors, lexical, tracker, 64)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", body)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 chunks for unchanged document, got %d", n)
	}
	if embedder.calls != 0 || len(vectors.upserts) != 0 {
		t.Fatalf("unchanged document must not reach the embedder")
	}
	// The in-process lexical index is still re-seeded so a restarted
	// worker recovers its sparse side.
	if len(lexical.indexed) != 1 || len(lexical.indexed[0]) != 3 {
		t.Fatalf("expected lexical re-seed with all chunks, got %+v", lexical.indexed)
	}
	if snap := tracker.Snapshot(); snap.DocumentsProcessed != 0 {
		t.Fatalf("unchanged document must not count as processed, got %+v", snap)
	}
}

func TestIngestSkipsKnownChunks(t *testing.T) {
	chunks := ingestChunks(3)
	repo := &ingestRepoFake{hashes: map[string]struct{}{
		chunks[0].Hash: {},
		chunks[2].Hash: {},
	}}
	vectors := &ingestVectorFake{}
	uc := NewIngestUseCase(repo, &ingestChunkerFake{chunks: chunks}, &ingestEmbedderFake{}, vectors, &ingestLexicalFake{}, testTracker(), 64)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "body")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the unknown chunk indexed, got %d", n)
	}
	if len(vectors.upserts) != 1 || vectors.upserts[0][0].Chunk.Hash != chunks[1].Hash {
		t.Fatalf("expected the middle chunk upserted, got %+v", vectors.upserts)
	}
	// Chunk count still reflects the whole document.
	if repo.resultN != 3 {
		t.Fatalf("expected chunk count 3 persisted, got %d", repo.resultN)
	}
}

func TestIngestChangedDocumentReindexesFromScratch(t *testing.T) {
	chunks := ingestChunks(2)
	repo := &ingestRepoFake{
		doc: &domain.Document{ID: "doc-1", ContentHash: "stale-hash", Status: domain.StatusReady},
		hashes: map[string]struct{}{
			chunks[0].Hash: {},
		},
	}
	vectors := &ingestVectorFake{}
	lexical := &ingestLexicalFake{}
	uc := NewIngestUseCase(repo, &ingestChunkerFake{chunks: chunks}, &ingestEmbedderFake{}, vectors, lexical, testTracker(), 64)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "new body")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("expected full reindex of 2 chunks, got %d", n)
	}
	if len(lexical.removed) != 1 || lexical.removed[0] != "doc-1" {
		t.Fatalf("expected stale lexical entries removed, got %v", lexical.removed)
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "doc-1" {
		t.Fatalf("expected stale vectors deleted, got %v", vectors.deleted)
	}
	if repo.cleared != 1 {
		t.Fatalf("expected stored chunk hashes cleared, got %d", repo.cleared)
	}
}

func TestIngestBatchesEmbedCalls(t *testing.T) {
	embedder := &ingestEmbedderFake{}
	uc := NewIngestUseCase(&ingestRepoFake{}, &ingestChunkerFake{chunks: ingestChunks(5)}, embedder, &ingestVectorFake{}, &ingestLexicalFake{}, testTracker(), 2)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "body")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 chunks indexed, got %d", n)
	}
	if embedder.calls != 3 {
		t.Fatalf("expected 3 embed batches for 5 chunks at size 2, got %d", embedder.calls)
	}
	if embedder.lastLen != 1 {
		t.Fatalf("expected final batch of 1, got %d", embedder.lastLen)
	}
}

func TestIngestPartialFailureReportsIndexedCount(t *testing.T) {
	embedder := &ingestEmbedderFake{errOn: 2}
	uc := NewIngestUseCase(&ingestRepoFake{}, &ingestChunkerFake{chunks: ingestChunks(4)}, embedder, &ingestVectorFake{}, &ingestLexicalFake{}, testTracker(), 2)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "body")
	if err == nil {
		t.Fatalf("expected error from second embed batch")
	}
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected embedding error kind, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected first batch counted, got %d", n)
	}
}

func TestIngestValidatesInput(t *testing.T) {
	uc := NewIngestUseCase(&ingestRepoFake{}, &ingestChunkerFake{}, &ingestEmbedderFake{}, &ingestVectorFake{}, &ingestLexicalFake{}, testTracker(), 64)

	if _, err := uc.Ingest(context.Background(), "  ", "doc.txt", "body"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty id, got %v", err)
	}
	if _, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "   \n\t "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank text, got %v", err)
	}
	if _, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "body"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero chunks, got %v", err)
	}
}

func TestIngestUpsertFailure(t *testing.T) {
	vectors := &ingestVectorFake{upsertErr: errors.New("qdrant down")}
	uc := NewIngestUseCase(&ingestRepoFake{}, &ingestChunkerFake{chunks: ingestChunks(2)}, &ingestEmbedderFake{}, vectors, &ingestLexicalFake{}, testTracker(), 64)

	n, err := uc.Ingest(context.Background(), "doc-1", "doc.txt", "body")
	if err == nil || !strings.Contains(err.Error(), "upsert vectors") {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no chunks counted, got %d", n)
	}
}
