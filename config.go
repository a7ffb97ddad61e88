package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultIDPrefix      = "aos"
	defaultIndexName     = "battlebuddy_aos"
	defaultBatchSize     = 32
	defaultResults       = 5
	defaultPreviewChars  = 500
	defaultDebounceMs    = 500
	defaultSQLitePath    = "data/index/battlebuddy.db"
	defaultLLMKeyEnv     = "OPENAI_API_KEY"
	defaultTemperature   = 0.4
	defaultSystemPrompt  = "You are a helpful assistant specialised in Warhammer: Age of Sigmar."
	defaultLLMTimeoutSec = 120
)

type Config struct {
	LogFile    string           `yaml:"log"`
	Paths      PathsConfig      `yaml:"paths"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Index      IndexConfig      `yaml:"index"`
	Store      StoreConfig      `yaml:"store"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	LLM        LLMConfig        `yaml:"llm"`
}

type PathsConfig struct {
	RawDir          string `yaml:"raw_dir" validate:"required"`
	ProcessedCorpus string `yaml:"processed_corpus" validate:"required"`
}

type ChunkingConfig struct {
	MaxChars     int `yaml:"max_chars" validate:"gt=0,gtfield=OverlapChars"`
	OverlapChars int `yaml:"overlap_chars" validate:"gte=0"`
	MinChars     int `yaml:"min_chars" validate:"gte=0"`
}

type IngestConfig struct {
	IDPrefix        string `yaml:"id_prefix"`
	Workers         int    `yaml:"workers" validate:"gte=0"`
	WriteDebounceMs int    `yaml:"write_debounce_ms" validate:"gte=0"`
}

type IndexConfig struct {
	Name              string  `yaml:"name"`
	BatchSize         int     `yaml:"batch_size" validate:"gt=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
}

type StoreConfig struct {
	Type     string `yaml:"type" validate:"oneof=sqlite chroma pgvector"`
	SQLite   *SQLiteConfig   `yaml:"sqlite"`
	Chroma   *ChromaConfig   `yaml:"chroma" validate:"required_if=Type chroma"`
	PgVector *PgVectorConfig `yaml:"pgvector" validate:"required_if=Type pgvector"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type ChromaConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

type PgVectorConfig struct {
	DSN string `yaml:"dsn" validate:"required"`
}

type EmbeddingsConfig struct {
	OpenAI *struct {
		Model  string `yaml:"model"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"open_ai"`
	Gemini *struct {
		Model  string `yaml:"model"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"gemini"`
	Ollama *struct {
		Model   string `yaml:"model" validate:"required"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"ollama"`
}

type RetrievalConfig struct {
	Results      int `yaml:"results" validate:"gt=0"`
	PreviewChars int `yaml:"preview_chars" validate:"gt=0"`
}

type LLMConfig struct {
	BaseURL      string   `yaml:"base_url"`
	ApiKey       string   `yaml:"api_key"`
	ApiKeyEnv    string   `yaml:"api_key_env"`
	Model        string   `yaml:"model"`
	Temperature  *float64 `yaml:"temperature" validate:"omitempty,gte=0,lte=2"`
	SystemPrompt string   `yaml:"system_prompt"`
	TimeoutSecs  int      `yaml:"timeout_secs" validate:"gte=0"`
}

func readConfig(cfgPath string) (*Config, error) {
	cfgFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := &Config{}
	dec := yaml.NewDecoder(cfgFile)
	err = dec.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Ingest.IDPrefix == "" {
		cfg.Ingest.IDPrefix = defaultIDPrefix
	}
	if cfg.Ingest.WriteDebounceMs == 0 {
		cfg.Ingest.WriteDebounceMs = defaultDebounceMs
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = defaultIndexName
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = defaultBatchSize
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "sqlite"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.SQLite == nil {
		cfg.Store.SQLite = &SQLiteConfig{Path: defaultSQLitePath}
	}
	if cfg.Retrieval.Results == 0 {
		cfg.Retrieval.Results = defaultResults
	}
	if cfg.Retrieval.PreviewChars == 0 {
		cfg.Retrieval.PreviewChars = defaultPreviewChars
	}
	if cfg.LLM.ApiKeyEnv == "" {
		cfg.LLM.ApiKeyEnv = defaultLLMKeyEnv
	}
	if cfg.LLM.Temperature == nil {
		t := defaultTemperature
		cfg.LLM.Temperature = &t
	}
	if cfg.LLM.SystemPrompt == "" {
		cfg.LLM.SystemPrompt = defaultSystemPrompt
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = defaultLLMTimeoutSec
	}
}

func validateConfig(cfg *Config) error {
	if _, err := NewChunkifier(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars, cfg.Chunking.MinChars); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func (c *Config) debounce() time.Duration {
	return time.Duration(c.Ingest.WriteDebounceMs) * time.Millisecond
}

func (c *Config) llmKey() string {
	if c.LLM.ApiKey != "" {
		return c.LLM.ApiKey
	}
	return os.Getenv(c.LLM.ApiKeyEnv)
}
