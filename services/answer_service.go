package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

// AnswerService writes grounded answers. It never fails; any problem yields
// NoInformationAnswer.
type AnswerService interface {
	Answer(ctx context.Context, query string, docs []models.RetrievedDocument) string
	AnalyzeJSON(ctx context.Context, data any) string
}

type answerServiceImpl struct {
	llm LLMClient
	log *zap.Logger
}

func NewAnswerService(llm LLMClient, log *zap.Logger) AnswerService {
	return &answerServiceImpl{llm: llm, log: log}
}

func (a *answerServiceImpl) Answer(ctx context.Context, query string, docs []models.RetrievedDocument) string {
	if len(docs) == 0 {
		a.log.Warn("answer: no context documents")
		return NoInformationAnswer
	}

	user := "Context:\n" + renderContext(docs) + "\n\nQuestion: " + query
	text, err := a.llm.Complete(ctx, CompletionRequest{System: answerSystemPrompt, User: user})
	if err != nil {
		a.log.Error("answer: model call failed", zap.Error(err))
		return NoInformationAnswer
	}
	if strings.TrimSpace(text) == "" {
		return NoInformationAnswer
	}
	a.log.Info("answer: generated", zap.Int("documents", len(docs)), zap.Int("length", len(text)))
	return text
}

func (a *answerServiceImpl) AnalyzeJSON(ctx context.Context, data any) string {
	rendered, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		a.log.Error("answer: could not render json", zap.Error(err))
		return NoInformationAnswer
	}

	text, err := a.llm.Complete(ctx, CompletionRequest{
		System: jsonAnalysisSystemPrompt,
		User:   "JSON data:\n" + string(rendered),
	})
	if err != nil {
		a.log.Error("answer: json analysis failed", zap.Error(err))
		return NoInformationAnswer
	}
	if strings.TrimSpace(text) == "" {
		return NoInformationAnswer
	}
	return text
}

func renderContext(docs []models.RetrievedDocument) string {
	blocks := make([]string, 0, len(docs))
	for i, d := range docs {
		header := fmt.Sprintf("Document %d", i+1)
		if d.Metadata.Source != "" {
			header += " (source: " + d.Metadata.Source + ")"
		}
		blocks = append(blocks, header+":\n"+d.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// ParseAnswer splits answer text on the TLDR and Description markers. Text
// without the Description marker is returned as a single unstructured block.
func ParseAnswer(text string) models.AnswerSections {
	text = strings.TrimSpace(text)
	idx := strings.Index(text, DetailMarker)
	if idx < 0 {
		return models.AnswerSections{Summary: strings.TrimSpace(strings.TrimPrefix(text, SummaryMarker))}
	}

	summary := strings.TrimSpace(text[:idx])
	summary = strings.TrimSpace(strings.TrimPrefix(summary, SummaryMarker))
	detail := strings.TrimSpace(text[idx+len(DetailMarker):])
	return models.AnswerSections{
		Summary:    summary,
		Detail:     detail,
		Structured: true,
	}
}

// SummaryForSpeech returns the part of an answer that gets synthesized.
func SummaryForSpeech(text string) string {
	return ParseAnswer(text).Summary
}
