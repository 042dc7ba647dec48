package usecase

import (
	"github.com/docsift/docsift/internal/core/domain"
)

// ConfidenceWeights mixes retrieval relevance with answer grounding.
type ConfidenceWeights struct {
	Relevance float64
	Overlap   float64
}

// scoreAnswer grades a generated answer against the context that
// produced it. Relevance is the top fused retrieval score; confidence
// blends relevance with the share of answer tokens found in the used
// context sections. Stopwords are ignored so that glue words do not
// inflate grounding.
func scoreAnswer(answer string, used []domain.RetrievalCandidate, weights ConfidenceWeights) (relevance, confidence float64) {
	if len(used) == 0 {
		return 0, 0
	}

	relevance = clampUnit(used[0].FusedScore)

	contextTokens := make(map[string]struct{}, 64)
	for _, c := range used {
		for _, tok := range domain.TokenizeText(c.Text, true) {
			contextTokens[tok] = struct{}{}
		}
	}

	answerTokens := make(map[string]struct{}, 32)
	for _, tok := range domain.TokenizeText(answer, true) {
		answerTokens[tok] = struct{}{}
	}

	if len(answerTokens) == 0 {
		return relevance, clampUnit(weights.Relevance * relevance)
	}

	matched := 0
	for tok := range answerTokens {
		if _, ok := contextTokens[tok]; ok {
			matched++
		}
	}
	overlap := float64(matched) / float64(len(answerTokens))

	confidence = clampUnit(weights.Relevance*relevance + weights.Overlap*overlap)
	return relevance, confidence
}

func citations(used []domain.RetrievalCandidate) []domain.Citation {
	if len(used) == 0 {
		return nil
	}
	out := make([]domain.Citation, 0, len(used))
	seen := make(map[string]struct{}, len(used))
	for _, c := range used {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, domain.Citation{Source: c.Source, Score: c.FusedScore})
	}
	return out
}
