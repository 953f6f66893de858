package services

import (
	"context"
	"sync"

	"github.com/itish2003/simplybot/models"
)

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []CompletionRequest
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeEmbedder struct {
	mu    sync.Mutex
	dim   int
	err   error
	texts []string
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.dim), nil
}

type fakeStore struct {
	mu        sync.Mutex
	chunks    []models.StoredChunk
	results   []models.RetrievedDocument
	searchErr error
	upsertErr error
	lastLimit int
}

func (f *fakeStore) EnsureCollection(context.Context, int) error { return nil }

func (f *fakeStore) Upsert(_ context.Context, chunks []models.StoredChunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, limit int) ([]models.RetrievedDocument, error) {
	f.lastLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeStore) Info(context.Context) (*models.CollectionInfo, error) {
	return &models.CollectionInfo{Name: "test", VectorsCount: uint64(f.count()), Status: "green"}, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

func userConversation(msgs ...string) models.Conversation {
	var conv models.Conversation
	for _, m := range msgs {
		conv.Messages = append(conv.Messages, models.ConversationMessage{Role: models.RoleUser, Content: m})
	}
	return conv
}
