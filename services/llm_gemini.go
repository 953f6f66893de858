package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiLLM calls Google Gemini through the genai SDK.
type GeminiLLM struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewGeminiLLM creates the genai client. baseURL overrides the API endpoint
// and is only set in tests.
func NewGeminiLLM(ctx context.Context, apiKey, model, baseURL string, maxTokens int, temperature float64) (*GeminiLLM, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiLLM{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

func (g *GeminiLLM) Name() string { return "gemini" }

func (g *GeminiLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(req.System),
		Temperature:       genai.Ptr(float32(g.temperature)),
		MaxOutputTokens:   int32(g.maxTokens),
	}
	if req.Format != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiResponseSchema(req.Format.Name)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), config)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}
