package domain

import "time"

// AnswerGrade is the persisted quality record of one synthesized answer.
type AnswerGrade struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	RelevanceScore  float64   `json:"relevance_score"`
	ConfidenceScore float64   `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
}
