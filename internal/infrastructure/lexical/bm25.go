package lexical

import (
	"math"
	"sort"
	"sync"

	"github.com/docsift/docsift/internal/core/domain"
)

const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

type posting struct {
	chunkID string
	freq    float64
}

type chunkMeta struct {
	documentID string
	source     string
	text       string
	length     float64
}

// Index is an in-process inverted index with BM25 ranking. Mutation is
// serialized by the write lock; identical corpus plus identical query
// always produce the identical ranked order, with ties broken by chunk
// id ascending.
type Index struct {
	mu sync.RWMutex

	postings map[string][]posting
	chunks   map[string]chunkMeta
	byDoc    map[string][]string
	totalLen float64

	k1            float64
	b             float64
	dropStopwords bool
}

func NewIndex(k1, b float64, dropStopwords bool) *Index {
	if k1 <= 0 {
		k1 = defaultK1
	}
	if b < 0 || b > 1 {
		b = defaultB
	}
	return &Index{
		postings:      make(map[string][]posting),
		chunks:        make(map[string]chunkMeta),
		byDoc:         make(map[string][]string),
		k1:            k1,
		b:             b,
		dropStopwords: dropStopwords,
	}
}

// Index adds chunks to the posting lists. A chunk id that is already
// present is skipped, so re-indexing after a partial ingestion cannot
// double-count terms.
func (ix *Index) Index(chunks []domain.Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, c := range chunks {
		if _, exists := ix.chunks[c.ID]; exists {
			continue
		}
		tokens := domain.TokenizeText(c.Text, ix.dropStopwords)
		if len(tokens) == 0 {
			continue
		}
		tf := make(map[string]float64, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term, freq := range tf {
			ix.postings[term] = append(ix.postings[term], posting{chunkID: c.ID, freq: freq})
		}
		ix.chunks[c.ID] = chunkMeta{
			documentID: c.DocumentID,
			source:     c.Source,
			text:       c.Text,
			length:     float64(len(tokens)),
		}
		ix.byDoc[c.DocumentID] = append(ix.byDoc[c.DocumentID], c.ID)
		ix.totalLen += float64(len(tokens))
	}
}

// Remove drops every chunk of the document from the index, so a changed
// document can be re-ingested without stale postings.
func (ix *Index) Remove(documentID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ids := ix.byDoc[documentID]
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		meta, ok := ix.chunks[id]
		if !ok {
			continue
		}
		for _, term := range domain.TokenizeText(meta.text, ix.dropStopwords) {
			plist := ix.postings[term]
			if plist == nil {
				continue
			}
			kept := plist[:0]
			for _, p := range plist {
				if p.chunkID != id {
					kept = append(kept, p)
				}
			}
			if len(kept) == 0 {
				delete(ix.postings, term)
			} else {
				ix.postings[term] = kept
			}
		}
		ix.totalLen -= meta.length
		delete(ix.chunks, id)
	}
	delete(ix.byDoc, documentID)
}

// Search scores chunks with Okapi BM25: idf rewards rare terms, term
// frequency saturates with k1, and document length is normalized by b
// against the corpus average.
func (ix *Index) Search(question string, limit int) []domain.ScoredChunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 || len(ix.chunks) == 0 {
		return nil
	}
	terms := domain.TokenizeText(question, ix.dropStopwords)
	if len(terms) == 0 {
		return nil
	}

	n := float64(len(ix.chunks))
	avgLen := ix.totalLen / n

	scores := make(map[string]float64, 32)
	for _, term := range terms {
		plist := ix.postings[term]
		if len(plist) == 0 {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range plist {
			meta := ix.chunks[p.chunkID]
			denom := p.freq + ix.k1*(1-ix.b+ix.b*meta.length/avgLen)
			scores[p.chunkID] += idf * (p.freq * (ix.k1 + 1)) / denom
		}
	}
	if len(scores) == 0 {
		return nil
	}

	out := make([]domain.ScoredChunk, 0, len(scores))
	for id, score := range scores {
		meta := ix.chunks[id]
		out = append(out, domain.ScoredChunk{
			ChunkID:    id,
			DocumentID: meta.documentID,
			Source:     meta.source,
			Text:       meta.text,
			Score:      score,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ChunkID < out[j].ChunkID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}
