package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

// minUserMessageLen is the shortest trimmed user message worth a model call.
const minUserMessageLen = 3

var codeFence = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*(.*?)\\s*```\\s*$")

// TriageService decides whether a conversation can be answered from the
// knowledge base. Triage never fails; problems degrade to ask_user.
type TriageService interface {
	Triage(ctx context.Context, conv models.Conversation) models.TriageResult
}

type triageServiceImpl struct {
	llm    LLMClient
	schema *jsonschema.Schema
	valid  *jsonschema.Resolved
	log    *zap.Logger
}

func NewTriageService(llm LLMClient, log *zap.Logger) (TriageService, error) {
	schema := TriageSchema()
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve triage schema: %w", err)
	}
	return &triageServiceImpl{llm: llm, schema: schema, valid: resolved, log: log}, nil
}

// TriageSchema is the JSON Schema the model's reply must satisfy.
func TriageSchema() *jsonschema.Schema {
	zero, one := 0.0, 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"summary":    {Type: "string"},
			"query":      {Type: "string"},
			"action":     {Type: "string", Enum: []any{string(models.ActionRetrieve), string(models.ActionAskUser)}},
			"confidence": {Type: "number", Minimum: &zero, Maximum: &one},
			"reasoning":  {Type: "string"},
		},
		Required: []string{"summary", "query", "action", "confidence", "reasoning"},
	}
}

func (t *triageServiceImpl) Triage(ctx context.Context, conv models.Conversation) models.TriageResult {
	if len(conv.Messages) == 0 {
		t.log.Warn("triage: empty conversation")
		return models.TriageResult{
			Summary:    "Empty conversation",
			Query:      "How can I help you? Please describe your question.",
			Action:     models.ActionAskUser,
			Confidence: 0.0,
			Reasoning:  "no messages",
		}
	}

	last, _ := conv.LastUserMessage()
	if n := utf8.RuneCountInString(strings.TrimSpace(last)); n < minUserMessageLen {
		t.log.Warn("triage: last user message too short", zap.Int("length", n))
		return models.TriageResult{
			Summary:    "User sent a very short message",
			Query:      "Please provide a more detailed question or problem description.",
			Action:     models.ActionAskUser,
			Confidence: 0.1,
			Reasoning:  "last user message is shorter than 3 characters",
		}
	}

	raw, err := t.llm.Complete(ctx, CompletionRequest{
		System: triageSystemPrompt,
		User:   "Conversation:\n" + renderConversation(conv),
		Format: &OutputFormat{Name: triageFormatName, Schema: t.schema},
	})
	if err != nil {
		t.log.Error("triage: model call failed", zap.Error(err))
		return models.TriageResult{
			Summary:    "Error while analyzing the conversation",
			Query:      "Please rephrase your question.",
			Action:     models.ActionAskUser,
			Confidence: 0.0,
			Reasoning:  "model call failed",
		}
	}

	result, err := t.parse(raw)
	if err != nil {
		t.log.Error("triage: could not parse model reply", zap.Error(err), zap.String("reply", preview(raw, 200)))
		return models.TriageResult{
			Summary:    "Could not parse the model reply",
			Query:      "Please rephrase your question.",
			Action:     models.ActionAskUser,
			Confidence: 0.1,
			Reasoning:  "parse failure",
		}
	}

	t.log.Info("triage: decided", zap.String("action", string(result.Action)), zap.Float64("confidence", result.Confidence))
	return result
}

func (t *triageServiceImpl) parse(raw string) (models.TriageResult, error) {
	body := stripCodeFence(raw)

	var instance map[string]any
	if err := json.Unmarshal([]byte(body), &instance); err != nil {
		return models.TriageResult{}, fmt.Errorf("invalid json: %w", err)
	}
	if err := t.valid.Validate(instance); err != nil {
		return models.TriageResult{}, fmt.Errorf("schema violation: %w", err)
	}

	var result models.TriageResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return models.TriageResult{}, fmt.Errorf("invalid triage result: %w", err)
	}
	return result, nil
}

func stripCodeFence(s string) string {
	if m := codeFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return strings.TrimSpace(s)
}

func renderConversation(conv models.Conversation) string {
	var sb strings.Builder
	for _, m := range conv.Messages {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncateRunes(s, n) + "..."
}
