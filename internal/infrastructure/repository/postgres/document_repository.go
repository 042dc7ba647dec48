package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/docsift/docsift/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026031401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	chunk_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	ingested_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS document_chunks (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_hash TEXT NOT NULL,
	PRIMARY KEY (document_id, chunk_hash)
);

CREATE TABLE IF NOT EXISTS answer_grades (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	relevance_score DOUBLE PRECISION NOT NULL,
	confidence_score DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_grades_created_at ON answer_grades(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, source, storage_path, content_hash, chunk_count, status, error_message, created_at, ingested_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		doc.ID, doc.Source, doc.StoragePath, doc.ContentHash, doc.ChunkCount,
		string(doc.Status), doc.Error, doc.CreatedAt, nullableTime(doc.IngestedAt),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, source, storage_path, content_hash, chunk_count, status, error_message, created_at, ingested_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status string
	var ingestedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.Source, &doc.StoragePath, &doc.ContentHash, &doc.ChunkCount,
		&status, &doc.Error, &doc.CreatedAt, &ingestedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document by id", err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if ingestedAt.Valid {
		doc.IngestedAt = ingestedAt.Time.UTC()
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3
WHERE id = $1
`, id, string(status), errMessage)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(result, "update document status", id)
}

func (r *DocumentRepository) SetIngestResult(ctx context.Context, id string, contentHash string, chunkCount int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET content_hash = $2, chunk_count = $3, status = $4, error_message = '', ingested_at = $5
WHERE id = $1
`, id, contentHash, chunkCount, string(domain.StatusReady), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set ingest result: %w", err)
	}
	return requireRow(result, "set ingest result", id)
}

func (r *DocumentRepository) ChunkHashes(ctx context.Context, documentID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT chunk_hash
FROM document_chunks
WHERE document_id = $1
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunk hashes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("scan chunk hash: %w", err)
		}
		out[hash] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk hashes: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) SaveChunkHashes(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk hash tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO document_chunks (document_id, chunk_hash)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`, documentID, chunk.Hash); err != nil {
			return fmt.Errorf("insert chunk hash: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk hash tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ClearChunkHashes(ctx context.Context, documentID string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM document_chunks
WHERE document_id = $1
`, documentID)
	if err != nil {
		return fmt.Errorf("clear chunk hashes: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w: id=%s", operation, domain.ErrDocumentNotFound, id)
	}
	return nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
