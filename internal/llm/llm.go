// Package llm is the boundary to the external text-generation service.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// Generator is the single capability callers need from the gateway: one
// prompt string in, one response string out. Implementations may fail with a
// provider or network error; they never interpret the response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pinger is implemented by gateways that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client against the given base URL.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Generate sends one prompt as a single-turn chat completion and returns the
// raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "model", c.model, "chars", len(raw))
	return raw, nil
}

// Ping verifies the endpoint is reachable and the credentials are accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}
