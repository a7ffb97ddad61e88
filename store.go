package main

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/gamma-omg/battlebuddy/docstore"
)

// IndexStore persists named vector indexes. Delete of a missing index is not
// an error; Query of a missing index returns docstore.ErrIndexNotFound.
type IndexStore interface {
	Delete(ctx context.Context, name string) error
	Create(ctx context.Context, name string) error
	Insert(ctx context.Context, name string, docs []docstore.IndexedDoc) error
	Query(ctx context.Context, name string, vec []float32, k int) ([]docstore.SearchResult, error)
	Close() error
}

func openIndexStore(ctx context.Context, cfg *Config, emb Embedder) (IndexStore, error) {
	switch cfg.Store.Type {
	case "chroma":
		ef, _ := emb.(embeddings.EmbeddingFunction)
		store, err := docstore.NewChromaStore(docstore.ChromaStoreConfig{
			BaseURL:       cfg.Store.Chroma.Addr,
			EmbeddingFunc: ef,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Chroma index store: %w", err)
		}
		return store, nil

	case "pgvector":
		store, err := docstore.NewPgVectorStore(ctx, cfg.Store.PgVector.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize pgvector index store: %w", err)
		}
		return store, nil

	default:
		store, err := docstore.NewSQLiteStore(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite index store: %w", err)
		}
		return store, nil
	}
}
