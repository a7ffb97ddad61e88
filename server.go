package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type retrievedContext struct {
	Rank     int     `json:"rank"`
	Score    float32 `json:"score"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Text     string  `json:"text"`
}

// NewRagServer exposes the retriever as the "retrieve" tool and, when an
// answerer is given, the full pipeline as the "ask" tool.
func NewRagServer(retriever docRetriever, answerer *Answerer, log *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("BattleBuddy", "0.1.0", server.WithToolCapabilities(false))

	retrieveTool := mcp.NewTool("retrieve",
		mcp.WithDescription("Search the Age of Sigmar corpus and return the most relevant passages"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		))
	srv.AddTool(retrieveTool, retrieveHandler(retriever, log))

	if answerer != nil {
		askTool := mcp.NewTool("ask",
			mcp.WithDescription("Answer an Age of Sigmar question using only passages from the corpus"),
			mcp.WithString("question",
				mcp.Required(),
				mcp.Description("Question to answer"),
			))
		srv.AddTool(askTool, askHandler(answerer, log))
	}

	return srv
}

func retrieveHandler(retriever docRetriever, log *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := retriever.Retrieve(ctx, q)
		if err != nil {
			log.Error("retrieve tool failed", "query", q, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		var response strings.Builder
		for i, r := range res {
			raw, err := json.Marshal(retrievedContext{
				Rank:     i + 1,
				Score:    r.Score,
				Title:    r.Title,
				Category: r.Category,
				Text:     r.Text,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			response.Write(raw)
			response.WriteString("\n")
		}

		return mcp.NewToolResultText(response.String()), nil
	}
}

func askHandler(answerer *Answerer, log *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		answer, err := answerer.Ask(ctx, q)
		if err != nil {
			log.Error("ask tool failed", "question", q, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(answer.Text), nil
	}
}
