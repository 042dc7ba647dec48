package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docsift/docsift/internal/core/domain"
)

// GradeRepository keeps the per-answer quality log used for offline
// review of retrieval and generation quality.
type GradeRepository struct {
	db *sql.DB
}

func NewGradeRepository(db *sql.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

func (r *GradeRepository) Save(ctx context.Context, grade domain.AnswerGrade) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO answer_grades (id, question, answer, relevance_score, confidence_score, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, grade.ID, grade.Question, grade.Answer, grade.RelevanceScore, grade.ConfidenceScore, grade.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert answer grade: %w", err)
	}
	return nil
}

func (r *GradeRepository) Recent(ctx context.Context, limit int) ([]domain.AnswerGrade, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, answer, relevance_score, confidence_score, created_at
FROM answer_grades
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent grades: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AnswerGrade, 0, limit)
	for rows.Next() {
		var grade domain.AnswerGrade
		if err := rows.Scan(
			&grade.ID, &grade.Question, &grade.Answer,
			&grade.RelevanceScore, &grade.ConfidenceScore, &grade.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer grade: %w", err)
		}
		out = append(out, grade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer grades: %w", err)
	}
	return out, nil
}
