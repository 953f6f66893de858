package services

import (
	"google.golang.org/genai"

	"github.com/itish2003/simplybot/models"
)

const triageFormatName = "conversation_triage"

// geminiResponseSchema returns the Gemini-native schema registered under
// name, or nil for free-form JSON.
func geminiResponseSchema(name string) *genai.Schema {
	switch name {
	case triageFormatName:
		return triageGeminiSchema()
	default:
		return nil
	}
}

func triageGeminiSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "Brief summary of the conversation so far.",
			},
			"query": {
				Type:        genai.TypeString,
				Description: "A concrete knowledge-base query, or the question to ask the user.",
			},
			"action": {
				Type:        genai.TypeString,
				Enum:        []string{string(models.ActionRetrieve), string(models.ActionAskUser)},
				Description: "retrieve when the request can be searched, ask_user when more detail is needed.",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Minimum:     genai.Ptr(0.0),
				Maximum:     genai.Ptr(1.0),
				Description: "Confidence in the decision, between 0 and 1.",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "Short justification of the chosen action.",
			},
		},
		Required:         []string{"summary", "query", "action", "confidence", "reasoning"},
		PropertyOrdering: []string{"summary", "query", "action", "confidence", "reasoning"},
	}
}
