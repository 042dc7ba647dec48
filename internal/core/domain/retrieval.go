package domain

// NoContextAnswer is returned verbatim when retrieval produces zero
// candidates; the model is never called on that path.
const NoContextAnswer = "I couldn't find relevant information to answer your question."

// ScoredChunk is a single-method retrieval hit (dense or lexical).
type ScoredChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// RetrievalCandidate is a fused hit. DenseScore and LexicalNorm are in
// [0,1]; LexicalScore keeps the raw BM25 value for inspection.
type RetrievalCandidate struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	Source       string  `json:"source"`
	Text         string  `json:"text"`
	DenseScore   float64 `json:"dense_score"`
	LexicalScore float64 `json:"lexical_score"`
	LexicalNorm  float64 `json:"lexical_norm"`
	FusedScore   float64 `json:"fused_score"`
}

type Citation struct {
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// AnswerResult is the outcome of one answer() call. Error is empty on
// success; pipeline failures populate it instead of panicking.
type AnswerResult struct {
	Question        string     `json:"question"`
	Answer          string     `json:"answer"`
	RelevanceScore  float64    `json:"relevance_score"`
	ConfidenceScore float64    `json:"confidence_score"`
	Citations       []Citation `json:"citations,omitempty"`
	ResponseTime    float64    `json:"response_time"`
	Cached          bool       `json:"cached,omitempty"`
	Error           string     `json:"error,omitempty"`
}

func (r AnswerResult) Failed() bool { return r.Error != "" }

type GenerationOptions struct {
	Temperature float64
	MaxTokens   int
}
