package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	ollama "github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Vector sizes of the two supported embedding backends.
const (
	OpenAIEmbeddingDimension = 3072
	BGEEmbeddingDimension    = 1024
)

// bgeQueryPrefix is prepended to every text sent to the BGE backend, both at
// ingestion and at query time.
const bgeQueryPrefix = "Represent this sentence for searching relevant passages: "

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrDimensionMismatch is returned when a backend produces a vector of the
// wrong size.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

func checkDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}

// OpenAIEmbedder calls the hosted OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAIEmbedder builds a hosted embedder. baseURL may be empty.
func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (e *OpenAIEmbedder) Name() string   { return "openai" }
func (e *OpenAIEmbedder) Dimension() int { return OpenAIEmbeddingDimension }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no embeddings")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	if err := checkDimension(vec, e.Dimension()); err != nil {
		return nil, err
	}
	return vec, nil
}

// BGEEmbedder runs BGE-M3 locally through an Ollama server.
type BGEEmbedder struct {
	client *ollama.Client
	model  string
}

// NewBGEEmbedder connects to the Ollama server at host.
func NewBGEEmbedder(host, model string, httpClient *http.Client) (*BGEEmbedder, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BGEEmbedder{
		client: ollama.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (e *BGEEmbedder) Name() string   { return "bge" }
func (e *BGEEmbedder) Dimension() int { return BGEEmbeddingDimension }

// Model is the local model name, reported by the health probe.
func (e *BGEEmbedder) Model() string { return e.model }

func (e *BGEEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &ollama.EmbedRequest{
		Model: e.model,
		Input: bgeQueryPrefix + text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding request failed: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("ollama returned no embeddings")
	}

	vec := resp.Embeddings[0]
	if err := checkDimension(vec, e.Dimension()); err != nil {
		return nil, err
	}
	return vec, nil
}
