package passage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragctx/internal/db"
	"github.com/kailas-cloud/ragctx/internal/domain"
	dompassage "github.com/kailas-cloud/ragctx/internal/domain/passage"
	searchuc "github.com/kailas-cloud/ragctx/internal/usecase/search"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS passages (
	id        TEXT PRIMARY KEY,
	text      TEXT NOT NULL,
	embedding TEXT,
	metadata  TEXT NOT NULL DEFAULT '{}'
)`

// SQLiteRepo reads passages from an embedded SQLite table. Embeddings are
// stored as JSON arrays or float32 blobs; there is no vector index, so all
// similarity scoring happens in the ranker.
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLite creates a SQLite passage repository.
func NewSQLite(conn *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: conn}
}

// EnsureSchema creates the passages table if it does not exist.
func (r *SQLiteRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("create passages table: %w", err)}
	}
	return nil
}

// TopK always reports domain.ErrTopKUnsupported.
func (r *SQLiteRepo) TopK(context.Context, []float32, int) ([]searchuc.Candidate, error) {
	return nil, fmt.Errorf("sqlite: %w", domain.ErrTopKUnsupported)
}

// FetchRecent returns up to limit passages in insertion order.
func (r *SQLiteRepo) FetchRecent(ctx context.Context, limit int) ([]dompassage.Passage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, COALESCE(embedding, ''), metadata FROM passages ORDER BY rowid LIMIT ?`,
		sqlLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("select passages: %w", err)}
	}
	defer rows.Close()

	var out []dompassage.Passage
	for rows.Next() {
		var id, text, emb, rawMeta string
		if err := rows.Scan(&id, &text, &emb, &rawMeta); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("scan passage: %w", err)}
		}
		p, perr := buildPassage(id, text, emb, parseMetadataJSON(rawMeta))
		if perr != nil {
			logMalformed(ctx, perr)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// ListMetadata returns metadata of up to limit passages in insertion order.
func (r *SQLiteRepo) ListMetadata(ctx context.Context, limit int) ([]dompassage.Metadata, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT metadata FROM passages ORDER BY rowid LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("select metadata: %w", err)}
	}
	defer rows.Close()

	var out []dompassage.Metadata
	for rows.Next() {
		var rawMeta string
		if err := rows.Scan(&rawMeta); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("scan metadata: %w", err)}
		}
		out = append(out, parseMetadataJSON(rawMeta))
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

// MetadataByTitle returns the metadata of the first passage with title.
func (r *SQLiteRepo) MetadataByTitle(ctx context.Context, title string) (dompassage.Metadata, error) {
	var rawMeta string
	err := r.db.QueryRowContext(ctx,
		`SELECT metadata FROM passages WHERE json_extract(metadata, '$.title') = ? ORDER BY rowid LIMIT 1`,
		title).Scan(&rawMeta)
	if errors.Is(err, sql.ErrNoRows) {
		return dompassage.Metadata{}, fmt.Errorf("%w: %q", domain.ErrDocumentNotFound, title)
	}
	if err != nil {
		return dompassage.Metadata{}, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("select by title: %w", err)}
	}
	return parseMetadataJSON(rawMeta), nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// parseMetadataJSON decodes a metadata column. Unreadable metadata yields
// an empty value so the passage still renders under the unknown source.
func parseMetadataJSON(raw string) dompassage.Metadata {
	var m metadataJSON
	if raw == "" || json.Unmarshal([]byte(raw), &m) != nil {
		return dompassage.Metadata{}
	}
	return m.toDomain()
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
