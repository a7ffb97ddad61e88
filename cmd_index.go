package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamma-omg/battlebuddy/docstore"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the processed corpus and rebuild the vector index",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	records, err := docstore.ReadCorpus(cfg.Paths.ProcessedCorpus)
	if err != nil {
		return err
	}
	logger.Info("processed corpus loaded", "file", cfg.Paths.ProcessedCorpus, "records", len(records))

	emb, closeEmb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeEmb()

	store, err := openIndexStore(ctx, cfg, emb)
	if err != nil {
		return err
	}
	defer store.Close()

	ib := &IndexBuilder{
		log:       logger,
		embedder:  emb,
		store:     store,
		batchSize: cfg.Index.BatchSize,
		limiter:   newRateLimiter(cfg.Index.RequestsPerSecond),
	}

	n, err := ib.Build(ctx, cfg.Index.Name, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks into %s\n", n, cfg.Index.Name)
	return nil
}
