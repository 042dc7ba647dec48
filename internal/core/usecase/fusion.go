package usecase

import (
	"sort"

	"github.com/docsift/docsift/internal/core/domain"
)

// FusionWeights combines dense and lexical contributions; they must sum
// to one, which configuration validates at startup.
type FusionWeights struct {
	Dense   float64
	Lexical float64
}

// mergeScoredChunks collapses per-variant result lists into one list,
// keeping the highest score seen per chunk id. First-seen order is
// preserved so merging stays deterministic.
func mergeScoredChunks(lists ...[]domain.ScoredChunk) []domain.ScoredChunk {
	acc := make(map[string]domain.ScoredChunk, 16)
	order := make([]string, 0, 16)
	for _, list := range lists {
		for _, hit := range list {
			cur, seen := acc[hit.ChunkID]
			if !seen {
				acc[hit.ChunkID] = hit
				order = append(order, hit.ChunkID)
				continue
			}
			if hit.Score > cur.Score {
				acc[hit.ChunkID] = hit
			}
		}
	}
	out := make([]domain.ScoredChunk, 0, len(order))
	for _, id := range order {
		out = append(out, acc[id])
	}
	return out
}

// fuseCandidates merges dense and lexical hits into one ranked list,
// deduplicated by chunk id. Dense scores are clamped to [0,1]; lexical
// scores are min-max normalized over the current lexical set. A chunk
// seen by only one method keeps 0 for the other method's contribution
// instead of being excluded. Ties break on dense score, then chunk id.
func fuseCandidates(dense, lexical []domain.ScoredChunk, weights FusionWeights, topN int) []domain.RetrievalCandidate {
	if len(dense) == 0 && len(lexical) == 0 {
		return nil
	}

	normalize := lexicalNormalizer(lexical)

	acc := make(map[string]*domain.RetrievalCandidate, len(dense)+len(lexical))
	order := make([]string, 0, len(dense)+len(lexical))
	upsert := func(hit domain.ScoredChunk) *domain.RetrievalCandidate {
		if c, ok := acc[hit.ChunkID]; ok {
			if c.Text == "" && hit.Text != "" {
				c.Text = hit.Text
			}
			if c.Source == "" {
				c.Source = hit.Source
			}
			if c.DocumentID == "" {
				c.DocumentID = hit.DocumentID
			}
			return c
		}
		c := &domain.RetrievalCandidate{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			Source:     hit.Source,
			Text:       hit.Text,
		}
		acc[hit.ChunkID] = c
		order = append(order, hit.ChunkID)
		return c
	}

	for _, hit := range dense {
		upsert(hit).DenseScore = clampUnit(hit.Score)
	}
	for _, hit := range lexical {
		c := upsert(hit)
		c.LexicalScore = hit.Score
		c.LexicalNorm = normalize(hit.Score)
	}

	out := make([]domain.RetrievalCandidate, 0, len(order))
	for _, id := range order {
		c := acc[id]
		c.FusedScore = weights.Dense*c.DenseScore + weights.Lexical*c.LexicalNorm
		out = append(out, *c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		if out[i].DenseScore != out[j].DenseScore {
			return out[i].DenseScore > out[j].DenseScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// lexicalNormalizer min-max normalizes over the result set. An empty set
// normalizes everything to 0; a degenerate set (max == min) maps
// positive scores to 1 and zero scores to 0.
func lexicalNormalizer(lexical []domain.ScoredChunk) func(float64) float64 {
	if len(lexical) == 0 {
		return func(float64) float64 { return 0 }
	}
	minScore := lexical[0].Score
	maxScore := lexical[0].Score
	for _, hit := range lexical[1:] {
		if hit.Score < minScore {
			minScore = hit.Score
		}
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}
	rangeScore := maxScore - minScore
	return func(v float64) float64 {
		if rangeScore <= 0 {
			if v > 0 {
				return 1
			}
			return 0
		}
		return (v - minScore) / rangeScore
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
