package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatLLM talks to any OpenAI-compatible chat endpoint. OpenRouter and
// OpenAI differ only in base URL and model name.
type ChatLLM struct {
	model       llms.Model
	provider    string
	maxTokens   int
	temperature float64
}

// NewChatLLM builds a client for provider. baseURL may be empty for the
// public OpenAI endpoint.
func NewChatLLM(provider, apiKey, baseURL, model string, maxTokens int, temperature float64) (*ChatLLM, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return &ChatLLM{
		model:       llm,
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

func (c *ChatLLM) Name() string { return c.provider }

func (c *ChatLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}
	opts := []llms.CallOption{
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	}
	if req.Format != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(c.provider + " returned no choices")
	}
	return resp.Choices[0].Content, nil
}
