package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/core/ports"
)

const expandInstruction = `Rewrite the user question as %d alternative search queries.
Keep the meaning, vary the wording.
Return one query per line, nothing else.

Question: %s
`

// QueryExpander asks the generator for reworded variants of a question
// to widen retrieval recall. Expansion is strictly best-effort: any
// failure yields no variants and the original question is searched
// alone.
type QueryExpander struct {
	generator   ports.TextGenerator
	maxVariants int
	temperature float64
}

func NewQueryExpander(generator ports.TextGenerator, maxVariants int, temperature float64) *QueryExpander {
	if maxVariants <= 0 {
		maxVariants = 2
	}
	return &QueryExpander{
		generator:   generator,
		maxVariants: maxVariants,
		temperature: temperature,
	}
}

func (e *QueryExpander) Expand(ctx context.Context, question string) []string {
	prompt := fmt.Sprintf(expandInstruction, e.maxVariants, question)
	raw, err := e.generator.Generate(ctx, prompt, domain.GenerationOptions{
		Temperature: e.temperature,
		MaxTokens:   128,
	})
	if err != nil {
		slog.Warn("query_expansion_failed", "error", err)
		return nil
	}
	return parseVariants(question, raw, e.maxVariants)
}

// parseVariants extracts usable query variants from raw model output,
// dropping list markers, duplicates and restatements of the original.
func parseVariants(original, raw string, max int) []string {
	seen := map[string]struct{}{
		tokenKey(original): {},
	}
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		v := stripListPrefix(strings.TrimSpace(line))
		if v == "" {
			continue
		}
		key := tokenKey(v)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}

// stripListPrefix removes bullet and enumeration markers. A bare
// leading number without a delimiter is kept, it can be part of the
// query itself.
func stripListPrefix(s string) string {
	for _, prefix := range []string{"- ", "* "} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

func tokenKey(s string) string {
	return strings.Join(domain.TokenizeText(s, false), " ")
}
