package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrCacheMiss            = errors.New("cache miss")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
