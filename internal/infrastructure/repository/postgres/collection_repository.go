package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

type CollectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Register upserts so re-indexing the same source replaces the registry row.
func (r *CollectionRepository) Register(ctx context.Context, col *domain.Collection) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO collections (name, source_id, strategy, embed_model, vector_size, chunk_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (name) DO UPDATE
SET source_id = EXCLUDED.source_id,
	strategy = EXCLUDED.strategy,
	embed_model = EXCLUDED.embed_model,
	vector_size = EXCLUDED.vector_size,
	chunk_count = EXCLUDED.chunk_count,
	created_at = EXCLUDED.created_at
`,
		col.Name, col.SourceID, string(col.Strategy), col.EmbedModel, col.VectorSize, col.ChunkCount, col.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("register collection: %w", err)
	}
	return nil
}

func (r *CollectionRepository) GetByName(ctx context.Context, name string) (*domain.Collection, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT name, source_id, strategy, embed_model, vector_size, chunk_count, created_at
FROM collections
WHERE name = $1
`, name)

	col, err := scanCollection(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCollectionNotFound, "get collection", fmt.Errorf("name %s", name))
		}
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	return col, nil
}

func (r *CollectionRepository) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, source_id, strategy, embed_model, vector_size, chunk_count, created_at
FROM collections
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Collection, 0, 16)
	for rows.Next() {
		col, err := scanCollection(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan collection row: %w", err)
		}
		out = append(out, *col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return out, nil
}

func scanCollection(scan func(dest ...any) error) (*domain.Collection, error) {
	var col domain.Collection
	var strategy string
	if err := scan(
		&col.Name, &col.SourceID, &strategy, &col.EmbedModel, &col.VectorSize, &col.ChunkCount, &col.CreatedAt,
	); err != nil {
		return nil, err
	}
	col.Strategy = domain.Strategy(strategy)
	return &col, nil
}
