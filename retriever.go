package main

import (
	"context"
	"fmt"

	"github.com/gamma-omg/battlebuddy/docstore"
)

type docRetriever interface {
	Retrieve(ctx context.Context, query string) ([]docstore.SearchResult, error)
}

// Retriever returns the chunks of an index most similar to a question,
// best match first.
type Retriever struct {
	embedder Embedder
	store    IndexStore
	index    string
	results  int
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]docstore.SearchResult, error) {
	return r.RetrieveK(ctx, query, r.results)
}

func (r *Retriever) RetrieveK(ctx context.Context, query string, k int) ([]docstore.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("number of results must be positive, got %d", k)
	}

	emb, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	res, err := r.store.Query(ctx, r.index, emb.ContentAsFloat32(), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index %s: %w", r.index, err)
	}

	return res, nil
}
