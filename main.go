package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gamma-omg/battlebuddy/llm"
)

var (
	cfgPath string
	verbose bool

	cfg    *Config
	logger *slog.Logger
	logOut io.Closer
)

var rootCmd = &cobra.Command{
	Use:          "battlebuddy",
	Short:        "Answer Age of Sigmar questions from a local document corpus",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := readConfig(cfgPath)
		if err != nil {
			return err
		}

		l, closer, err := newLogger(c, verbose, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cfg, logger, logOut = c, l, closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logOut != nil {
			return logOut.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config/corpus_config.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(ingestCmd, indexCmd, askCmd, serveCmd)
}

// newLogger writes JSON to the configured log file, or text to stderr when no
// file is set. Every record carries the id of the current run.
func newLogger(cfg *Config, verbose bool, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	var closer io.Closer
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		h = slog.NewJSONHandler(logFile, opts)
		closer = logFile
	} else {
		h = slog.NewTextHandler(stderr, opts)
	}

	return slog.New(h).With("run_id", uuid.NewString()), closer, nil
}

func createGenerator(cfg *Config) (Generator, error) {
	key := cfg.llmKey()
	if key == "" {
		return nil, fmt.Errorf("no API key for answer generation: set llm.api_key or %s", cfg.LLM.ApiKeyEnv)
	}

	c, err := llm.NewClient(llm.Config{
		APIKey:      key,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: *cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return c, nil
}

// openQueryStack wires the embedder, index store and retriever used by the
// ask and serve commands. The returned func releases all of them.
func openQueryStack(ctx context.Context) (*Retriever, func(), error) {
	emb, closeEmb, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := openIndexStore(ctx, cfg, emb)
	if err != nil {
		closeEmb()
		return nil, nil, err
	}

	r := &Retriever{
		embedder: emb,
		store:    store,
		index:    cfg.Index.Name,
		results:  cfg.Retrieval.Results,
	}

	release := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close index store", "error", err)
		}
		if err := closeEmb(); err != nil {
			logger.Warn("failed to close embedding function", "error", err)
		}
	}

	return r, release, nil
}

func newAnswerer(r docRetriever) (*Answerer, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.LLM.Model
	if named, ok := gen.(interface{ ModelName() string }); ok {
		model = named.ModelName()
	}
	if model == "" {
		model = llm.DefaultModel
	}

	return &Answerer{
		log:          logger,
		retriever:    r,
		generator:    gen,
		model:        model,
		systemPrompt: cfg.LLM.SystemPrompt,
		countTokens:  newTokenCounter(model),
	}, nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
