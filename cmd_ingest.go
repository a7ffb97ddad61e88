package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gamma-omg/battlebuddy/docstore"
	"github.com/gamma-omg/battlebuddy/readers"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract and chunk the raw documents into the processed corpus",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "Keep running and rebuild the corpus when raw files change")
}

func newCorpusBuilder(cfg *Config) (*CorpusBuilder, error) {
	chunkifier, err := NewChunkifier(cfg.Chunking.MaxChars, cfg.Chunking.OverlapChars, cfg.Chunking.MinChars)
	if err != nil {
		return nil, err
	}

	cb := &CorpusBuilder{
		log:        logger,
		root:       cfg.Paths.RawDir,
		idPrefix:   cfg.Ingest.IDPrefix,
		workers:    cfg.Ingest.Workers,
		chunkifier: chunkifier,
	}

	err = cb.RegisterReader(
		&readers.HTMLFileReader{},
		&readers.TxtFileReader{},
		readers.NewPdfFileReader(logger))
	if err != nil {
		return nil, err
	}

	return cb, nil
}

func ingest(ctx context.Context, cb *CorpusBuilder, out string) error {
	records, err := cb.Build(ctx)
	if err != nil {
		return err
	}

	if err := docstore.WriteCorpus(out, records); err != nil {
		return err
	}

	logger.Info("processed corpus written", "file", out, "chunks", len(records))
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cb, err := newCorpusBuilder(cfg)
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) error {
		return ingest(ctx, cb, cfg.Paths.ProcessedCorpus)
	}

	if err := rebuild(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Processed corpus written to %s\n", cfg.Paths.ProcessedCorpus)

	if !ingestWatch {
		return nil
	}

	if err := cb.Watch(ctx, cfg.debounce(), rebuild); err != nil {
		return err
	}
	logger.Info("watching raw documents", "dir", cfg.Paths.RawDir)

	<-ctx.Done()
	return nil
}
