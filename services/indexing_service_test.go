package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateUpload(t *testing.T) {
	const limit = 10 * 1024 * 1024
	assert.NoError(t, ValidateUpload("a.pdf", 1024, limit))
	assert.NoError(t, ValidateUpload("b.TXT", limit, limit))
	assert.ErrorIs(t, ValidateUpload("c.exe", 10, limit), ErrUnsupportedFileType)
	assert.ErrorIs(t, ValidateUpload("d.docx", limit+1, limit), ErrFileTooLarge)
}

func TestIngestTextFile(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestionService(&fakeEmbedder{dim: 8}, store, nil, zap.NewNop())
	svc.(*fileIndexingService).now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
	n, err := svc.Ingest(context.Background(), "uploads/fox.txt", []byte(text))
	require.NoError(t, err)
	require.Greater(t, n, 1)
	require.Len(t, store.chunks, n)

	ids := map[string]bool{}
	for i, c := range store.chunks {
		assert.LessOrEqual(t, len(c.Content), DefaultChunkSize)
		assert.Len(t, c.Vector, 8)
		assert.Equal(t, "fox.txt", c.Metadata.Source)
		assert.Equal(t, "fox.txt", c.Metadata.Title)
		assert.Equal(t, "txt", c.Metadata.ContentType)
		assert.Equal(t, "2024-05-01T10:00:00Z", c.Metadata.AddedAt)
		assert.Equal(t, i+1, c.Metadata.Chunk, "chunk numbers start at 1")
		assert.Zero(t, c.Metadata.Page)
		ids[c.ID] = true
	}
	assert.Len(t, ids, n)
}

func TestIngestTwiceDoublesChunks(t *testing.T) {
	store := &fakeStore{}
	svc := NewIngestionService(&fakeEmbedder{dim: 4}, store, nil, zap.NewNop())

	first, err := svc.Ingest(context.Background(), "a.txt", []byte("One sentence. Another one."))
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), "a.txt", []byte("One sentence. Another one."))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first*2, store.count())
}

func TestIngestEmptyFile(t *testing.T) {
	store := &fakeStore{}
	n, err := NewIngestionService(&fakeEmbedder{dim: 4}, store, nil, zap.NewNop()).Ingest(context.Background(), "blank.txt", []byte("   \n"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, store.count())
}

func TestIngestFailures(t *testing.T) {
	_, err := NewIngestionService(&fakeEmbedder{dim: 4}, &fakeStore{}, nil, zap.NewNop()).Ingest(context.Background(), "x.csv", []byte("a,b"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	store := &fakeStore{}
	_, err = NewIngestionService(&fakeEmbedder{dim: 4, err: errors.New("quota")}, store, nil, zap.NewNop()).Ingest(context.Background(), "x.txt", []byte("text"))
	assert.Error(t, err)
	assert.Zero(t, store.count())

	_, err = NewIngestionService(&fakeEmbedder{dim: 4}, &fakeStore{upsertErr: errors.New("down")}, nil, zap.NewNop()).Ingest(context.Background(), "x.txt", []byte("text"))
	assert.Error(t, err)
}

func TestWatchDirectoryIngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	svc := NewIngestionService(&fakeEmbedder{dim: 4}, store, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.WatchDirectory(ctx, dir)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("Watched file. It has two sentences."), 0o644))

	assert.Eventually(t, func() bool { return store.count() == 1 }, 3*time.Second, 50*time.Millisecond)
}
