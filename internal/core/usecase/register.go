package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

// RegisterDocumentUseCase accepts a raw document, stores the original
// bytes and queues it for asynchronous indexing.
type RegisterDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewRegisterDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *RegisterDocumentUseCase {
	return &RegisterDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *RegisterDocumentUseCase) Register(
	ctx context.Context,
	source string,
	body io.Reader,
) (*domain.Document, error) {
	if strings.TrimSpace(source) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register document", errors.New("empty source name"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeSource(source))

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Source:      source,
		StoragePath: storageKey,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentRegistered(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish registration event: %w", err)
	}

	return doc, nil
}

func sanitizeSource(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
