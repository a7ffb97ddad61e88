package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/gamma-omg/battlebuddy/docstore"
)

// IndexBuilder replaces a named index with the embeddings of a corpus.
// Embeddings are computed before the previous index is dropped, so an
// embedding failure leaves it untouched.
type IndexBuilder struct {
	log       *slog.Logger
	embedder  Embedder
	store     IndexStore
	batchSize int
	limiter   *rate.Limiter
}

func newRateLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (ib *IndexBuilder) Build(ctx context.Context, name string, records []docstore.ChunkRecord) (int, error) {
	ib.log.Info("building index", "index", name, "records", len(records))

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	vectors, err := ib.embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to compute embeddings: %w", err)
	}

	docs := make([]docstore.IndexedDoc, len(records))
	for i, r := range records {
		docs[i] = docstore.IndexedDoc{
			ID:        r.ID,
			Text:      r.Text,
			Embedding: vectors[i],
			Title:     r.Title,
			Category:  r.Category,
		}
	}

	if err := ib.store.Delete(ctx, name); err != nil {
		return 0, fmt.Errorf("failed to delete index %s: %w", name, err)
	}
	ib.log.Info("previous index dropped", "index", name)

	if err := ib.store.Create(ctx, name); err != nil {
		return 0, fmt.Errorf("failed to create index %s: %w", name, err)
	}

	if err := ib.store.Insert(ctx, name, docs); err != nil {
		return 0, fmt.Errorf("failed to insert into index %s: %w", name, err)
	}

	ib.log.Info("index built", "index", name, "chunks", len(docs))
	return len(docs), nil
}

func (ib *IndexBuilder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	batch := ib.batchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	res := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batch {
		end := min(start+batch, len(texts))

		if ib.limiter != nil {
			if err := ib.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		embs, err := ib.embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if len(embs) != end-start {
			return nil, fmt.Errorf("batch %d-%d: expected %d embeddings, got %d", start, end, end-start, len(embs))
		}

		for _, e := range embs {
			res = append(res, e.ContentAsFloat32())
		}
		ib.log.Debug("embedded batch", "done", end, "total", len(texts))
	}

	return res, nil
}
