package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

type SourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
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

func (r *SourceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	filename TEXT NOT NULL,
	archive_path TEXT NOT NULL,
	strategy TEXT NOT NULL,
	collection_name TEXT,
	file_count INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sources_status ON sources(status);
CREATE INDEX IF NOT EXISTS idx_sources_created_at ON sources(created_at DESC);

CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
	strategy TEXT NOT NULL,
	embed_model TEXT NOT NULL,
	vector_size INTEGER NOT NULL,
	chunk_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_collections_source_id ON collections(source_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SourceRepository) Create(ctx context.Context, src *domain.Source) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sources (
	id, name, filename, archive_path, strategy, collection_name, file_count, chunk_count, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		src.ID, src.Name, src.Filename, src.ArchivePath, string(src.Strategy), src.Collection,
		src.FileCount, src.ChunkCount, string(src.Status), src.Error, src.CreatedAt, src.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, filename, archive_path, strategy, collection_name, file_count, chunk_count, status, error_message, created_at, updated_at
FROM sources
WHERE id = $1
`, id)

	var src domain.Source
	var strategy, status string
	var collection, errMessage sql.NullString

	err := row.Scan(
		&src.ID, &src.Name, &src.Filename, &src.ArchivePath, &strategy, &collection,
		&src.FileCount, &src.ChunkCount, &status, &errMessage, &src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSourceNotFound, "get source", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}

	src.Strategy = domain.Strategy(strategy)
	src.Status = domain.SourceStatus(status)
	src.Collection = collection.String
	src.Error = errMessage.String
	return &src, nil
}

func (r *SourceRepository) UpdateStatus(ctx context.Context, id string, status domain.SourceStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sources
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update source status: %w", err)
	}
	return requireRowAffected(result, "update source status", id)
}

func (r *SourceRepository) SaveIndexResult(ctx context.Context, id, collection string, fileCount, chunkCount int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sources
SET collection_name = $2, file_count = $3, chunk_count = $4, status = $5, error_message = '', updated_at = $6
WHERE id = $1
`, id, collection, fileCount, chunkCount, string(domain.StatusReady), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save index result: %w", err)
	}
	return requireRowAffected(result, "save index result", id)
}

func requireRowAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSourceNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
