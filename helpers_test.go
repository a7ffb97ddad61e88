package main

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/stretchr/testify/require"
)

const fakeDims = 32

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fakeEmbedder hashes words into a small bag-of-words vector, so texts sharing
// words end up close to each other.
type fakeEmbedder struct {
	batches [][]string
	failAt  int
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error) {
	f.batches = append(f.batches, texts)
	if f.failAt > 0 && len(f.batches) == f.failAt {
		return nil, errors.New("embedding service unavailable")
	}

	res := make([]embeddings.Embedding, len(texts))
	for i, text := range texts {
		res[i] = embeddings.NewEmbeddingFromFloat32(hashVector(text))
	}
	return res, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error) {
	return embeddings.NewEmbeddingFromFloat32(hashVector(text)), nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, fakeDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%fakeDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] /= float32(math.Sqrt(norm))
	}
	return vec
}
