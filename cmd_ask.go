package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gamma-omg/battlebuddy/docstore"
)

var askResults int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed corpus",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askResults, "results", "k", 0, "Number of contexts to retrieve (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, release, err := openQueryStack(ctx)
	if err != nil {
		return err
	}
	defer release()

	if cmd.Flags().Changed("results") {
		r.results = askResults
	}

	a, err := newAnswerer(r)
	if err != nil {
		return err
	}

	contexts, err := a.Retrieve(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printContexts(out, contexts, cfg.Retrieval.PreviewChars)

	answer, err := a.Generate(ctx, args[0], contexts)
	if err != nil {
		return err
	}

	fmt.Fprint(out, "\n=== BattleBuddy Answer ===\n\n")
	fmt.Fprintln(out, answer.Text)

	return nil
}

func printContexts(w io.Writer, contexts []docstore.SearchResult, preview int) {
	fmt.Fprintln(w, "Retrieved contexts:")
	for i, c := range contexts {
		fmt.Fprintf(w, "\n--- Context %d (category=%s, title=%s) ---\n\n", i+1, c.Category, c.Title)
		fmt.Fprintln(w, previewText(c.Text, preview))
	}
}

// previewText cuts text to limit characters and marks the cut with "...".
func previewText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
