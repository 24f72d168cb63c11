// internal/store/artifacts.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the store can be tested with pgxmock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createTableSQL = `
    CREATE TABLE IF NOT EXISTS artifacts (
        id         TEXT PRIMARY KEY,
        session_id TEXT NOT NULL,
        file_name  TEXT NOT NULL,
        file_type  TEXT NOT NULL,
        mime_type  TEXT NOT NULL,
        size       BIGINT NOT NULL,
        content    BYTEA NOT NULL,
        metadata   JSONB NOT NULL DEFAULT '{}',
        trace_id   TEXT,
        thread_id  TEXT,
        created_at TIMESTAMPTZ NOT NULL
    );
`

// ArtifactStore is the PostgreSQL implementation of schemas.ArtifactStore.
// Records are write-once; concurrent inserts rely on the database's atomic
// single-row insert and need no locking here.
type ArtifactStore struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.ArtifactStore = (*ArtifactStore)(nil)

// New verifies the connection and bootstraps the artifacts schema.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*ArtifactStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, &schemas.StorageError{Op: "ensure schema", Err: err}
	}
	return &ArtifactStore{pool: pool, log: logger.Named("store")}, nil
}

// Insert persists one artifact and returns its assigned id. Size is
// recomputed from the content so the stored invariant always holds.
func (s *ArtifactStore) Insert(ctx context.Context, a *schemas.Artifact) (string, error) {
	id := uuid.NewString()

	metadata := a.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", &schemas.StorageError{Op: "encode metadata", Err: err}
	}

	const sql = `
        INSERT INTO artifacts (id, session_id, file_name, file_type, mime_type, size, content, metadata, trace_id, thread_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
    `
	_, err = s.pool.Exec(ctx, sql,
		id, a.SessionID, a.FileName, string(a.FileType), a.MimeType,
		int64(len(a.Content)), a.Content, metaJSON, a.TraceID, a.ThreadID,
		time.Now().UTC(),
	)
	if err != nil {
		return "", &schemas.StorageError{Op: "insert artifact", Err: err}
	}

	s.log.Debug("Inserted artifact",
		zap.String("artifact_id", id),
		zap.String("session_id", a.SessionID),
		zap.String("file", a.FileName),
	)
	return id, nil
}

const artifactColumns = "id, session_id, file_name, file_type, mime_type, size, content, metadata, trace_id, thread_id, created_at"

// GetByID retrieves one artifact including its content bytes.
func (s *ArtifactStore) GetByID(ctx context.Context, id string) (*schemas.Artifact, error) {
	sql := fmt.Sprintf("SELECT %s FROM artifacts WHERE id = $1;", artifactColumns)
	rows, err := s.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, &schemas.StorageError{Op: "get artifact", Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &schemas.StorageError{Op: "get artifact", Err: err}
		}
		return nil, &schemas.NotFoundError{Kind: "artifact", ID: id}
	}

	a, err := scanArtifact(rows)
	if err != nil {
		return nil, &schemas.StorageError{Op: "scan artifact", Err: err}
	}
	return a, nil
}

// ListBySessionID returns a session's artifacts, newest first.
func (s *ArtifactStore) ListBySessionID(ctx context.Context, sessionID string) ([]schemas.Artifact, error) {
	sql := fmt.Sprintf("SELECT %s FROM artifacts WHERE session_id = $1 ORDER BY created_at DESC;", artifactColumns)
	rows, err := s.pool.Query(ctx, sql, sessionID)
	if err != nil {
		return nil, &schemas.StorageError{Op: "list session artifacts", Err: err}
	}
	defer rows.Close()

	var out []schemas.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, &schemas.StorageError{Op: "scan artifact", Err: err}
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, &schemas.StorageError{Op: "list session artifacts", Err: err}
	}
	return out, nil
}

// List returns a page of artifact summaries (content excluded) and the
// total number of matching rows.
func (s *ArtifactStore) List(ctx context.Context, f schemas.ArtifactFilter) ([]schemas.ArtifactSummary, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := " WHERE ($1 = '' OR session_id = $1) AND ($2 = '' OR file_type = $2)"

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM artifacts"+where+";",
		f.SessionID, string(f.FileType)).Scan(&total); err != nil {
		return nil, 0, &schemas.StorageError{Op: "count artifacts", Err: err}
	}

	sql := `
        SELECT id, session_id, file_name, file_type, mime_type, size, metadata, trace_id, thread_id, created_at
        FROM artifacts` + where + `
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4;
    `
	rows, err := s.pool.Query(ctx, sql, f.SessionID, string(f.FileType), limit, f.Offset)
	if err != nil {
		return nil, 0, &schemas.StorageError{Op: "list artifacts", Err: err}
	}
	defer rows.Close()

	var out []schemas.ArtifactSummary
	for rows.Next() {
		var (
			sum      schemas.ArtifactSummary
			fileType string
			metaJSON []byte
		)
		if err := rows.Scan(&sum.ID, &sum.SessionID, &sum.FileName, &fileType, &sum.MimeType,
			&sum.Size, &metaJSON, &sum.TraceID, &sum.ThreadID, &sum.CreatedAt); err != nil {
			return nil, 0, &schemas.StorageError{Op: "scan artifact summary", Err: err}
		}
		sum.FileType = schemas.FileType(fileType)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &sum.Metadata); err != nil {
				s.log.Warn("Failed to decode artifact metadata", zap.String("artifact_id", sum.ID), zap.Error(err))
			}
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &schemas.StorageError{Op: "list artifacts", Err: err}
	}
	return out, total, nil
}

// DeleteByID removes one artifact; false means no row matched.
func (s *ArtifactStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM artifacts WHERE id = $1;", id)
	if err != nil {
		return false, &schemas.StorageError{Op: "delete artifact", Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteBySessionID removes all of a session's artifacts and reports how
// many rows were removed.
func (s *ArtifactStore) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM artifacts WHERE session_id = $1;", sessionID)
	if err != nil {
		return 0, &schemas.StorageError{Op: "delete session artifacts", Err: err}
	}
	return tag.RowsAffected(), nil
}

// scanArtifact reads a full artifact row.
func scanArtifact(rows pgx.Rows) (*schemas.Artifact, error) {
	var (
		a        schemas.Artifact
		fileType string
		metaJSON []byte
	)
	if err := rows.Scan(&a.ID, &a.SessionID, &a.FileName, &fileType, &a.MimeType,
		&a.Size, &a.Content, &metaJSON, &a.TraceID, &a.ThreadID, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.FileType = schemas.FileType(fileType)
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &a.Metadata); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// IsNotFound reports whether err denotes a missing row rather than a
// storage failure.
func IsNotFound(err error) bool {
	var nf *schemas.NotFoundError
	return errors.As(err, &nf)
}
