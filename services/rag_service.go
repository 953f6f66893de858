package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

// sourcePreviewLen is how much of each retrieved chunk is echoed back.
const sourcePreviewLen = 200

// baselineConfidence applies to answers produced without triage.
const baselineConfidence = 0.8

type pipelineStage string

const (
	stageReceived           pipelineStage = "received"
	stageTriaged            pipelineStage = "triaged"
	stageNeedsClarification pipelineStage = "needs_clarification"
	stageRetrieving         pipelineStage = "retrieving"
	stageAnswering          pipelineStage = "answering"
	stageSynthesizing       pipelineStage = "synthesizing"
	stageTerminal           pipelineStage = "terminal"
)

// RAGService runs one conversation through triage, retrieval, answering and
// optional speech. It never fails; degraded paths produce a fallback answer.
type RAGService interface {
	HandleConversation(ctx context.Context, conv models.Conversation) *models.Answer
	ChatWithJSON(ctx context.Context, data any) *models.JSONChatResponse
}

type ragServiceImpl struct {
	triage    TriageService
	retrieval RetrievalService
	answers   AnswerService
	speech    SpeechService
	limit     int
	metrics   *Metrics
	log       *zap.Logger
}

func NewRAGService(triage TriageService, retrieval RetrievalService, answers AnswerService, speech SpeechService, metrics *Metrics, log *zap.Logger) RAGService {
	return &ragServiceImpl{
		triage:    triage,
		retrieval: retrieval,
		answers:   answers,
		speech:    speech,
		limit:     DefaultRetrievalLimit,
		metrics:   metrics,
		log:       log,
	}
}

func (r *ragServiceImpl) stage(s pipelineStage, sessionID string, fields ...zap.Field) {
	r.log.Info("pipeline: "+string(s), append(fields, zap.String("session_id", sessionID))...)
}

func (r *ragServiceImpl) HandleConversation(ctx context.Context, conv models.Conversation) *models.Answer {
	r.stage(stageReceived, conv.SessionID, zap.Int("messages", len(conv.Messages)))

	triage := r.triage.Triage(ctx, conv)
	r.stage(stageTriaged, conv.SessionID, zap.String("action", string(triage.Action)), zap.Float64("confidence", triage.Confidence))

	if triage.Action != models.ActionRetrieve {
		r.stage(stageNeedsClarification, conv.SessionID)
		question := triage.Query
		if question == "" {
			question = triage.Summary
		}
		r.stage(stageTerminal, conv.SessionID)
		r.metrics.observeOutcome("clarification")
		return &models.Answer{
			Answer:             question,
			Confidence:         triage.Confidence,
			Sources:            []models.Source{},
			NeedsClarification: true,
		}
	}

	r.stage(stageRetrieving, conv.SessionID, zap.String("query", preview(triage.Query, 80)))
	docs := r.retrieval.Retrieve(ctx, triage.Query, r.limit)

	r.stage(stageAnswering, conv.SessionID, zap.Int("documents", len(docs)))
	text := r.answers.Answer(ctx, triage.Query, docs)

	answer := &models.Answer{
		Answer:     text,
		Confidence: triage.Confidence,
		Sources:    toSources(docs),
	}
	answer.AudioURL = r.synthesize(ctx, conv.SessionID, text)

	r.stage(stageTerminal, conv.SessionID, zap.Bool("audio", answer.AudioURL != ""))
	if text == NoInformationAnswer {
		r.metrics.observeOutcome("no_information")
	} else {
		r.metrics.observeOutcome("answered")
	}
	return answer
}

func (r *ragServiceImpl) ChatWithJSON(ctx context.Context, data any) *models.JSONChatResponse {
	text := r.answers.AnalyzeJSON(ctx, data)
	r.metrics.observeOutcome("json_analysis")
	confidence := baselineConfidence
	if text == NoInformationAnswer {
		confidence = 0
	}
	return &models.JSONChatResponse{
		Answer:     text,
		AudioURL:   r.synthesize(ctx, "", text),
		Confidence: confidence,
	}
}

// synthesize speaks only the summary section of the answer.
func (r *ragServiceImpl) synthesize(ctx context.Context, sessionID, text string) string {
	if r.speech == nil || !r.speech.Enabled() {
		return ""
	}
	r.stage(stageSynthesizing, sessionID)
	url, ok := r.speech.Synthesize(ctx, SummaryForSpeech(text))
	if !ok {
		return ""
	}
	return url
}

func toSources(docs []models.RetrievedDocument) []models.Source {
	sources := make([]models.Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, models.Source{
			Content:  truncateRunes(d.Content, sourcePreviewLen) + "...",
			Metadata: d.Metadata,
			Score:    d.Score,
		})
	}
	return sources
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
