package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const pgSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS battlebuddy_indexes (
	name TEXT PRIMARY KEY,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
);

CREATE TABLE IF NOT EXISTS battlebuddy_vectors (
	index_name TEXT NOT NULL REFERENCES battlebuddy_indexes(name) ON DELETE CASCADE,
	id TEXT NOT NULL,
	text TEXT NOT NULL,
	title TEXT,
	category TEXT,
	embedding vector NOT NULL,
	PRIMARY KEY (index_name, id)
);
`

// PgVectorStore keeps indexes in Postgres using the pgvector extension.
type PgVectorStore struct {
	pool *pgxpool.Pool
}

func NewPgVectorStore(ctx context.Context, dsn string) (*PgVectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PgVectorStore{pool: pool}, nil
}

func (p *PgVectorStore) Delete(ctx context.Context, name string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM battlebuddy_indexes WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete index %s: %w", name, err)
	}

	return nil
}

func (p *PgVectorStore) Create(ctx context.Context, name string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO battlebuddy_indexes (name) VALUES ($1)`, name)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", name, err)
	}

	return nil
}

func (p *PgVectorStore) Insert(ctx context.Context, name string, docs []IndexedDoc) error {
	if err := p.ensureIndex(ctx, name); err != nil {
		return err
	}

	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(`
			INSERT INTO battlebuddy_vectors (index_name, id, text, title, category, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			name, d.ID, d.Text, d.Title, d.Category, pgvector.NewVector(d.Embedding))
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert %d vectors into %s: %w", len(docs), name, err)
	}

	return nil
}

func (p *PgVectorStore) Query(ctx context.Context, name string, vec []float32, k int) ([]SearchResult, error) {
	if err := p.ensureIndex(ctx, name); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, text, COALESCE(title, ''), COALESCE(category, ''), 1 - (embedding <=> $2) AS similarity
		FROM battlebuddy_vectors
		WHERE index_name = $1
		ORDER BY embedding <=> $2, id
		LIMIT $3`,
		name, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	var res []SearchResult
	for rows.Next() {
		var (
			sr    SearchResult
			score float64
		)
		if err := rows.Scan(&sr.ID, &sr.Text, &sr.Title, &sr.Category, &score); err != nil {
			return nil, err
		}
		sr.Score = float32(score)
		res = append(res, sr)
	}

	return res, rows.Err()
}

func (p *PgVectorStore) Close() error {
	p.pool.Close()
	return nil
}

func (p *PgVectorStore) ensureIndex(ctx context.Context, name string) error {
	var found string
	err := p.pool.QueryRow(ctx, `SELECT name FROM battlebuddy_indexes WHERE name = $1`, name).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to look up index %s: %w", name, err)
	}

	return nil
}
