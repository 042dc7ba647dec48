package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docsift/docsift/internal/core/domain"
)

func extractPlaintext(raw []byte, source string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("read %s: %w: binary content", source, domain.ErrInvalidInput)
	}
	return strings.TrimSpace(string(raw)), nil
}
