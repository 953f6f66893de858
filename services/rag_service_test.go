package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

type stubTriage struct{ result models.TriageResult }

func (s stubTriage) Triage(context.Context, models.Conversation) models.TriageResult { return s.result }

type stubRetrieval struct {
	docs    []models.RetrievedDocument
	queries []string
}

func (s *stubRetrieval) Retrieve(_ context.Context, query string, _ int) []models.RetrievedDocument {
	s.queries = append(s.queries, query)
	return s.docs
}

type fakeSpeech struct {
	enabled bool
	spoken  []string
}

func (f *fakeSpeech) Enabled() bool { return f.enabled }

func (f *fakeSpeech) Synthesize(_ context.Context, text string) (string, bool) {
	f.spoken = append(f.spoken, text)
	return AudioURLPrefix + "speech_test.mp3", true
}

func (f *fakeSpeech) AudioPath(string) (string, error)               { return "", ErrAudioNotFound }
func (f *fakeSpeech) CleanupOldAudio(time.Duration) (int, error)     { return 0, nil }
func (f *fakeSpeech) RunCleanup(context.Context, time.Duration, time.Duration) {}

const structuredReply = "**TLDR:** Invoices go out on the 1st.\n\n**Description:** Billing runs monthly and payment is due in 14 days."

func TestHandleConversationAskUser(t *testing.T) {
	retrieval := &stubRetrieval{}
	llm := &fakeLLM{reply: structuredReply}
	speech := &fakeSpeech{enabled: true}
	svc := NewRAGService(
		stubTriage{models.TriageResult{Summary: "greeting", Query: "What would you like to know?", Action: models.ActionAskUser, Confidence: 0.3}},
		retrieval, NewAnswerService(llm, zap.NewNop()), speech, nil, zap.NewNop(),
	)

	got := svc.HandleConversation(context.Background(), userConversation("hello there"))

	assert.True(t, got.NeedsClarification)
	assert.Equal(t, "What would you like to know?", got.Answer)
	assert.InDelta(t, 0.3, got.Confidence, 1e-9)
	assert.Empty(t, got.Sources)
	assert.Empty(t, got.AudioURL)
	assert.Empty(t, retrieval.queries)
	assert.Zero(t, llm.calls())
	assert.Empty(t, speech.spoken)
}

func TestHandleConversationAskUserFallsBackToSummary(t *testing.T) {
	svc := NewRAGService(
		stubTriage{models.TriageResult{Summary: "Please tell me more.", Action: models.ActionAskUser}},
		&stubRetrieval{}, NewAnswerService(&fakeLLM{}, zap.NewNop()), nil, nil, zap.NewNop(),
	)
	got := svc.HandleConversation(context.Background(), userConversation("hmm what"))
	assert.Equal(t, "Please tell me more.", got.Answer)
}

func TestHandleConversationRetrieve(t *testing.T) {
	long := strings.Repeat("é", 250)
	retrieval := &stubRetrieval{docs: []models.RetrievedDocument{
		{Content: long, Metadata: models.DocumentMetadata{Source: "billing.pdf", Page: 1}, Score: 0.92},
		{Content: "short", Metadata: models.DocumentMetadata{Source: "faq.txt"}, Score: 0.71},
	}}
	llm := &fakeLLM{reply: structuredReply}
	speech := &fakeSpeech{enabled: true}
	svc := NewRAGService(
		stubTriage{models.TriageResult{Query: "invoice schedule", Action: models.ActionRetrieve, Confidence: 0.85}},
		retrieval, NewAnswerService(llm, zap.NewNop()), speech, NewMetrics(), zap.NewNop(),
	)

	got := svc.HandleConversation(context.Background(), userConversation("When are invoices sent?"))

	assert.False(t, got.NeedsClarification)
	assert.Equal(t, structuredReply, got.Answer)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
	assert.Equal(t, []string{"invoice schedule"}, retrieval.queries)
	assert.Equal(t, AudioURLPrefix+"speech_test.mp3", got.AudioURL)

	// only the summary is spoken
	require.Len(t, speech.spoken, 1)
	assert.Equal(t, "Invoices go out on the 1st.", speech.spoken[0])
	assert.NotContains(t, speech.spoken[0], "Billing runs monthly")

	require.Len(t, got.Sources, 2)
	assert.Equal(t, strings.Repeat("é", 200)+"...", got.Sources[0].Content)
	assert.Equal(t, "short...", got.Sources[1].Content)
	assert.Equal(t, "billing.pdf", got.Sources[0].Metadata.Source)
	assert.InDelta(t, 0.92, got.Sources[0].Score, 1e-9)
}

func TestHandleConversationNoDocuments(t *testing.T) {
	llm := &fakeLLM{reply: structuredReply}
	svc := NewRAGService(
		stubTriage{models.TriageResult{Query: "unknown topic", Action: models.ActionRetrieve, Confidence: 0.9}},
		&stubRetrieval{}, NewAnswerService(llm, zap.NewNop()), &fakeSpeech{}, nil, zap.NewNop(),
	)

	got := svc.HandleConversation(context.Background(), userConversation("Tell me about quantum billing"))
	assert.Equal(t, NoInformationAnswer, got.Answer)
	assert.Empty(t, got.Sources)
	assert.Empty(t, got.AudioURL)
	assert.Zero(t, llm.calls())
}

func TestChatWithJSON(t *testing.T) {
	speech := &fakeSpeech{enabled: true}
	svc := NewRAGService(stubTriage{}, &stubRetrieval{}, NewAnswerService(&fakeLLM{reply: structuredReply}, zap.NewNop()), speech, nil, zap.NewNop())

	got := svc.ChatWithJSON(context.Background(), map[string]any{"invoice": 12})
	assert.Equal(t, structuredReply, got.Answer)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.Equal(t, []string{"Invoices go out on the 1st."}, speech.spoken)

	failing := NewRAGService(stubTriage{}, &stubRetrieval{}, NewAnswerService(&fakeLLM{reply: ""}, zap.NewNop()), nil, nil, zap.NewNop())
	got = failing.ChatWithJSON(context.Background(), map[string]any{})
	assert.Equal(t, NoInformationAnswer, got.Answer)
	assert.Zero(t, got.Confidence)
}
