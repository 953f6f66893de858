package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSpeech(t *testing.T, apiKey, baseURL string) (SpeechService, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "audio")
	svc, err := NewSpeechService(SpeechConfig{
		APIKey:   apiKey,
		VoiceID:  "voice-1",
		Model:    "eleven_multilingual_v2",
		BaseURL:  baseURL,
		AudioDir: dir,
	}, nil, nil, zap.NewNop())
	require.NoError(t, err)
	return svc, dir
}

func TestSynthesizeWithoutKey(t *testing.T) {
	svc, _ := newTestSpeech(t, "", "http://unused")
	url, ok := svc.Synthesize(context.Background(), "hello")
	assert.False(t, ok)
	assert.Empty(t, url)
	assert.False(t, svc.Enabled())
}

func TestSynthesizeWritesFile(t *testing.T) {
	var got ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake-mp3"))
	}))
	defer srv.Close()

	svc, dir := newTestSpeech(t, "secret", srv.URL+"/")
	url, ok := svc.Synthesize(context.Background(), "Short answer.")
	require.True(t, ok)

	assert.True(t, strings.HasPrefix(url, AudioURLPrefix+"speech_"))
	assert.True(t, strings.HasSuffix(url, ".mp3"))
	assert.Equal(t, "Short answer.", got.Text)
	assert.Equal(t, "eleven_multilingual_v2", got.ModelID)

	filename := strings.TrimPrefix(url, AudioURLPrefix)
	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, "ID3fake-mp3", string(data))

	path, err := svc.AudioPath(filename)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, filename), path)
}

func TestSynthesizeProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc, dir := newTestSpeech(t, "secret", srv.URL)
	_, ok := svc.Synthesize(context.Background(), "hello")
	assert.False(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAudioPathRejectsUnsafeNames(t *testing.T) {
	svc, _ := newTestSpeech(t, "", "")
	for _, name := range []string{"../secret.mp3", "missing.mp3", "notes.txt", ""} {
		_, err := svc.AudioPath(name)
		assert.ErrorIs(t, err, ErrAudioNotFound, name)
	}
}

func TestCleanupOldAudio(t *testing.T) {
	svc, dir := newTestSpeech(t, "", "")

	write := func(name string, age time.Duration) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		ts := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}
	write("old.mp3", 48*time.Hour)
	write("fresh.mp3", time.Hour)
	write("old.wav", 48*time.Hour)

	removed, err := svc.CleanupOldAudio(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, filepath.Join(dir, "old.mp3"))
	assert.FileExists(t, filepath.Join(dir, "fresh.mp3"))
	assert.FileExists(t, filepath.Join(dir, "old.wav"))
}

func TestRunCleanupStopsOnCancel(t *testing.T) {
	svc, _ := newTestSpeech(t, "", "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunCleanup(ctx, 10*time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}
