package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsift/docsift/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type indexRepoFake struct {
	doc           *domain.Document
	getErr        error
	statusErr     error
	failStatusErr error
	statusCalls   []statusCall
}

func (f *indexRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *indexRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *indexRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *indexRepoFake) SetIngestResult(context.Context, string, string, int) error { return nil }
func (f *indexRepoFake) ChunkHashes(context.Context, string) (map[string]struct{}, error) {
	return nil, nil
}
func (f *indexRepoFake) SaveChunkHashes(context.Context, string, []domain.Chunk) error { return nil }
func (f *indexRepoFake) ClearChunkHashes(context.Context, string) error                { return nil }

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type ingesterFake struct {
	n          int
	err        error
	documentID string
	source     string
	text       string
}

func (f *ingesterFake) Ingest(_ context.Context, documentID, source, rawText string) (int, error) {
	f.documentID = documentID
	f.source = source
	f.text = rawText
	if f.err != nil {
		return 0, f.err
	}
	return f.n, nil
}

func TestIndexByIDSuccess(t *testing.T) {
	repo := &indexRepoFake{doc: &domain.Document{ID: "doc-1", Source: "report.txt"}}
	ingester := &ingesterFake{n: 3}
	uc := NewIndexDocumentUseCase(repo, &extractorFake{text: "extracted text"}, ingester)

	chunks, err := uc.IndexByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("IndexByID() error = %v", err)
	}
	if chunks != 3 {
		t.Fatalf("IndexByID() chunks = %d, want 3", chunks)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusIndexing {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if ingester.documentID != "doc-1" || ingester.source != "report.txt" || ingester.text != "extracted text" {
		t.Fatalf("unexpected ingest call: %+v", ingester)
	}
}

func TestIndexByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &indexRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewIndexDocumentUseCase(repo, &extractorFake{err: errors.New("extract fail")}, &ingesterFake{})

	_, err := uc.IndexByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected indexing + failed status updates, got %+v", repo.statusCalls)
	}
	last := repo.statusCalls[1]
	if last.status != domain.StatusFailed || !strings.Contains(last.errMsg, "extract fail") {
		t.Fatalf("expected failed status with cause, got %+v", last)
	}
}

func TestIndexByIDMarksFailedOnIngestError(t *testing.T) {
	repo := &indexRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewIndexDocumentUseCase(repo, &extractorFake{text: "text"}, &ingesterFake{err: errors.New("embedder offline")})

	_, err := uc.IndexByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestIndexByIDFetchError(t *testing.T) {
	repo := &indexRepoFake{getErr: errors.New("db down")}
	uc := NewIndexDocumentUseCase(repo, &extractorFake{text: "text"}, &ingesterFake{})

	_, err := uc.IndexByID(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "fetch document by id") {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(repo.statusCalls) != 0 {
		t.Fatalf("no status updates expected, got %+v", repo.statusCalls)
	}
}

func TestIndexByIDReportsFailedStatusWriteError(t *testing.T) {
	repo := &indexRepoFake{
		doc:           &domain.Document{ID: "doc-1"},
		failStatusErr: errors.New("db down"),
	}
	uc := NewIndexDocumentUseCase(repo, &extractorFake{err: errors.New("extract fail")}, &ingesterFake{})

	_, err := uc.IndexByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "mark failed status") {
		t.Fatalf("expected combined error, got %v", err)
	}
}
