package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
paths:
  raw_dir: data/raw
  processed_corpus: data/processed/aos_corpus.jsonl
chunking:
  max_chars: 1000
  overlap_chars: 100
  min_chars: 10
`

func Test_ReadConfig_Defaults(t *testing.T) {
	cfg, err := readConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.Paths.RawDir)
	assert.Equal(t, 1000, cfg.Chunking.MaxChars)
	assert.Equal(t, "aos", cfg.Ingest.IDPrefix)
	assert.Equal(t, "battlebuddy_aos", cfg.Index.Name)
	assert.Equal(t, 32, cfg.Index.BatchSize)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	require.NotNil(t, cfg.Store.SQLite)
	assert.Equal(t, defaultSQLitePath, cfg.Store.SQLite.Path)
	assert.Equal(t, 5, cfg.Retrieval.Results)
	assert.Equal(t, 500, cfg.Retrieval.PreviewChars)
	assert.Equal(t, 0.4, *cfg.LLM.Temperature)
	assert.Equal(t, defaultSystemPrompt, cfg.LLM.SystemPrompt)
	assert.Equal(t, 500*time.Millisecond, cfg.debounce())
}

func Test_ReadConfig_Full(t *testing.T) {
	cfg, err := readConfig(writeConfig(t, minimalConfig+`
log: battlebuddy.log
index:
  name: custom
  batch_size: 8
store:
  type: chroma
  chroma:
    addr: http://localhost:8000
embeddings:
  ollama:
    model: nomic-embed-text
retrieval:
  results: 3
llm:
  api_key: secret
  temperature: 0
`))
	require.NoError(t, err)

	assert.Equal(t, "battlebuddy.log", cfg.LogFile)
	assert.Equal(t, "custom", cfg.Index.Name)
	assert.Equal(t, 8, cfg.Index.BatchSize)
	assert.Equal(t, "http://localhost:8000", cfg.Store.Chroma.Addr)
	require.NotNil(t, cfg.Embeddings.Ollama)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Ollama.Model)
	assert.Equal(t, 3, cfg.Retrieval.Results)
	assert.Equal(t, 0.0, *cfg.LLM.Temperature)
	assert.Equal(t, "secret", cfg.llmKey())
}

func Test_ReadConfig_Invalid(t *testing.T) {
	var cases = []string{
		`
paths:
  raw_dir: data/raw
  processed_corpus: out.jsonl
chunking:
  max_chars: 100
  overlap_chars: 100
`,
		`
paths:
  raw_dir: data/raw
  processed_corpus: out.jsonl
chunking:
  max_chars: 0
`,
		`
paths:
  raw_dir: data/raw
chunking:
  max_chars: 100
`,
		minimalConfig + `
store:
  type: redis
`,
		minimalConfig + `
store:
  type: chroma
`,
		`paths: [`,
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := readConfig(writeConfig(t, c))
			assert.Error(t, err)
		})
	}
}

func Test_ReadConfig_InvalidChunkingIsReported(t *testing.T) {
	_, err := readConfig(writeConfig(t, `
paths:
  raw_dir: data/raw
  processed_corpus: out.jsonl
chunking:
  max_chars: 50
  overlap_chars: 80
`))
	assert.ErrorIs(t, err, ErrInvalidChunking)
}

func Test_ReadConfig_MissingFile(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func Test_LLMKeyFromEnv(t *testing.T) {
	t.Setenv("BATTLEBUDDY_TEST_KEY", "from-env")

	cfg := &Config{LLM: LLMConfig{ApiKeyEnv: "BATTLEBUDDY_TEST_KEY"}}
	assert.Equal(t, "from-env", cfg.llmKey())
}
