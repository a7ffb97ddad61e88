// Package llm provides the answer generation client for an OpenAI compatible
// chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4.1-mini"
	DefaultTimeout = 120 * time.Second
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	http        *resty.Client
	model       string
	temperature float64
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:        c,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends a single system + user exchange and returns the reply.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}

	var out chatResponse
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}

	if resp.IsError() {
		if failure.Error != nil {
			return "", fmt.Errorf("llm error (status %d): %s", resp.StatusCode(), failure.Error.Message)
		}
		return "", fmt.Errorf("llm error (status %d): %s", resp.StatusCode(), resp.String())
	}

	if len(out.Choices) == 0 {
		return "", errors.New("llm: no response choices returned")
	}

	return out.Choices[0].Message.Content, nil
}

func (c *Client) ModelName() string {
	return c.model
}
