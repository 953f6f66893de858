package services

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// OutputFormat asks the model for a JSON object matching Schema. Name is used
// by providers that register response schemas by name.
type OutputFormat struct {
	Name   string
	Schema *jsonschema.Schema
}

// CompletionRequest is a single system + user turn.
type CompletionRequest struct {
	System string
	User   string
	Format *OutputFormat
}

// LLMClient is a chat completion backend.
type LLMClient interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
