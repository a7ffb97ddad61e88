package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	defaultef "github.com/amikos-tech/chroma-go/pkg/embeddings/default_ef"
	gemini "github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
	ollama "github.com/amikos-tech/chroma-go/pkg/embeddings/ollama"
	openai "github.com/amikos-tech/chroma-go/pkg/embeddings/openai"
)

// Embedder maps text to dense vectors. The same embedder must be used for
// indexing and for querying an index.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error)
	EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error)
}

// newEmbedder is replaced in tests.
var newEmbedder = createEmbeddingFunction

func createEmbeddingFunction(cfg *Config) (Embedder, func() error, error) {
	noop := func() error { return nil }

	if cfg.Embeddings.OpenAI != nil {
		key := cfg.Embeddings.OpenAI.ApiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}

		ef, err := openai.NewOpenAIEmbeddingFunction(
			key,
			openai.WithModel(openai.EmbeddingModel(cfg.Embeddings.OpenAI.Model)))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OpenAI embedding function: %w", err)
		}

		return ef, noop, nil
	}

	if cfg.Embeddings.Gemini != nil {
		key := cfg.Embeddings.Gemini.ApiKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}

		ef, err := gemini.NewGeminiEmbeddingFunction(
			gemini.WithAPIKey(key),
			gemini.WithDefaultModel(embeddings.EmbeddingModel(cfg.Embeddings.Gemini.Model)))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
		}

		return ef, noop, nil
	}

	if cfg.Embeddings.Ollama != nil {
		opts := []ollama.Option{ollama.WithModel(embeddings.EmbeddingModel(cfg.Embeddings.Ollama.Model))}
		if cfg.Embeddings.Ollama.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(cfg.Embeddings.Ollama.BaseURL))
		}

		ef, err := ollama.NewOllamaEmbeddingFunction(opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Ollama embedding function: %w", err)
		}

		return ef, noop, nil
	}

	// all-MiniLM-L6-v2 running locally through onnxruntime
	ef, closeEf, err := defaultef.NewDefaultEmbeddingFunction()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create default embedding function: %w", err)
	}

	return ef, closeEf, nil
}
