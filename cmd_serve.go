package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve retrieval and answers to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	r, release, err := openQueryStack(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	var a *Answerer
	if cfg.llmKey() != "" {
		a, err = newAnswerer(r)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no LLM API key configured, ask tool disabled")
	}

	logger.Info("serving MCP over stdio", "index", cfg.Index.Name)
	return server.ServeStdio(NewRagServer(r, a, logger))
}
