package chunking

import (
	"fmt"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
)

// Unit selects how ChunkSize and Overlap are measured.
type Unit string

const (
	UnitRunes  Unit = "runes"
	UnitTokens Unit = "tokens"
)

// Codec turns text into model token ids and back. Required for the token
// unit; optional for the rune unit, where it only improves the reported
// token counts.
type Codec interface {
	Encode(text string) []int
	Decode(ids []int) string
}

type Splitter struct {
	ChunkSize int
	Overlap   int
	Unit      Unit

	codec Codec
}

func NewSplitter(chunkSize, overlap int, unit Unit, codec Codec) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", fmt.Errorf("chunk size %d must be positive", chunkSize))
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", fmt.Errorf("overlap %d must be in [0, %d)", overlap, chunkSize))
	}
	switch unit {
	case UnitRunes:
	case UnitTokens:
		if codec == nil {
			return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", fmt.Errorf("token unit requires a codec"))
		}
	default:
		return nil, domain.WrapError(domain.ErrInvalidConfiguration, "chunking", fmt.Errorf("unknown chunk unit %q", unit))
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
		Unit:      unit,
		codec:     codec,
	}, nil
}

type span struct {
	start  int
	text   string
	tokens int
}

// Chunk windows the normalized text, hashes each span, and drops spans
// whose hash was already produced for this document.
func (s *Splitter) Chunk(documentID, source, text string) []domain.Chunk {
	normalized := domain.NormalizeText(text)
	if normalized == "" {
		return nil
	}

	var spans []span
	if s.Unit == UnitTokens {
		spans = s.tokenSpans(normalized)
	} else {
		spans = s.runeSpans(normalized)
	}

	seen := make(map[string]struct{}, len(spans))
	out := make([]domain.Chunk, 0, len(spans))
	for _, sp := range spans {
		body := strings.TrimSpace(sp.text)
		if body == "" {
			continue
		}
		hash := domain.HashText(body)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		tokens := sp.tokens
		if tokens == 0 {
			tokens = s.countTokens(body)
		}
		out = append(out, domain.Chunk{
			ID:         fmt.Sprintf("%s:%d", documentID, sp.start),
			DocumentID: documentID,
			Source:     source,
			Text:       body,
			TokenCount: tokens,
			Start:      sp.start,
			Hash:       hash,
		})
	}
	return out
}

func (s *Splitter) runeSpans(text string) []span {
	runes := []rune(text)
	step := s.ChunkSize - s.Overlap

	spans := make([]span, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, span{start: start, text: string(runes[start:end])})
		if end == len(runes) {
			break
		}
	}
	return spans
}

func (s *Splitter) tokenSpans(text string) []span {
	ids := s.codec.Encode(text)
	if len(ids) == 0 {
		return nil
	}
	step := s.ChunkSize - s.Overlap

	spans := make([]span, 0, len(ids)/step+1)
	for start := 0; start < len(ids); start += step {
		end := start + s.ChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		spans = append(spans, span{
			start:  start,
			text:   s.codec.Decode(ids[start:end]),
			tokens: end - start,
		})
		if end == len(ids) {
			break
		}
	}
	return spans
}

func (s *Splitter) countTokens(text string) int {
	if s.codec != nil {
		return len(s.codec.Encode(text))
	}
	return estimateTokens(text)
}

// estimateTokens approximates bytes/4, the usual density of English text
// under BPE vocabularies.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
