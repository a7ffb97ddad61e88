package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/gamma-omg/battlebuddy/docstore"
)

const contextSeparator = "\n\n---\n\n"

const promptTemplate = `You are BattleBuddy, an Age of Sigmar (AoS) assistant.

Use only the provided context to answer the user's question about AoS lore, rules, and beginner army-building.
If the answer is not clearly supported by the context, say that you don't know based on the current information.

Preserve original names of factions, units, rules, and places.

Context:
%s

Question: %s

Answer:`

// BuildPrompt renders the grounding prompt. Any list of contexts, including
// an empty one, yields a complete prompt.
func BuildPrompt(question string, contexts []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(contexts, contextSeparator), question)
}

type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// newGenerator is replaced in tests.
var newGenerator = createGenerator

type Answer struct {
	Contexts []docstore.SearchResult
	Prompt   string
	Text     string
}

// Answerer retrieves context for a question and asks the generator to answer
// from it. Ask runs both steps; callers that report the contexts before the
// answer call Retrieve and Generate separately.
type Answerer struct {
	log          *slog.Logger
	retriever    docRetriever
	generator    Generator
	model        string
	systemPrompt string
	countTokens  func(text string) (int, error)
}

func (a *Answerer) Ask(ctx context.Context, question string) (*Answer, error) {
	contexts, err := a.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	return a.Generate(ctx, question, contexts)
}

func (a *Answerer) Retrieve(ctx context.Context, question string) ([]docstore.SearchResult, error) {
	return a.retriever.Retrieve(ctx, question)
}

func (a *Answerer) Generate(ctx context.Context, question string, contexts []docstore.SearchResult) (*Answer, error) {
	texts := make([]string, len(contexts))
	for i, c := range contexts {
		texts[i] = c.Text
	}
	prompt := BuildPrompt(question, texts)

	if a.countTokens != nil {
		n, err := a.countTokens(prompt)
		if err != nil {
			a.log.Warn("failed to count prompt tokens", "error", err)
		} else {
			a.log.Info("prompt assembled", "contexts", len(contexts), "tokens", n, "model", a.model)
		}
	}

	text, err := a.generator.Generate(ctx, a.systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Answer{
		Contexts: contexts,
		Prompt:   prompt,
		Text:     text,
	}, nil
}

// newTokenCounter is replaced in tests; tiktoken fetches its encodings over
// the network on first use.
var newTokenCounter = tokenCounter

// tokenCounter counts tokens the way the given chat model would.
func tokenCounter(model string) func(text string) (int, error) {
	return func(text string) (int, error) {
		enc, err := tiktoken.EncodingForModel(model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
			if err != nil {
				return 0, err
			}
		}
		return len(enc.Encode(text, nil, nil)), nil
	}
}
