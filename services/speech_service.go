package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AudioURLPrefix is where generated audio files are served from.
const AudioURLPrefix = "/static/audio/"

// ErrAudioNotFound is returned for unknown or unsafe audio filenames.
var ErrAudioNotFound = errors.New("audio file not found")

// SpeechService turns answer text into MP3 files.
type SpeechService interface {
	Enabled() bool
	// Synthesize returns the file's public URL. ok is false when speech is
	// disabled or the provider failed; that is not an error for callers.
	Synthesize(ctx context.Context, text string) (url string, ok bool)
	AudioPath(filename string) (string, error)
	CleanupOldAudio(maxAge time.Duration) (int, error)
	RunCleanup(ctx context.Context, interval, maxAge time.Duration)
}

type SpeechConfig struct {
	APIKey   string
	VoiceID  string
	Model    string
	BaseURL  string
	AudioDir string
}

type elevenLabsSpeech struct {
	cfg        SpeechConfig
	httpClient *http.Client
	metrics    *Metrics
	log        *zap.Logger
	now        func() time.Time
}

func NewSpeechService(cfg SpeechConfig, httpClient *http.Client, metrics *Metrics, log *zap.Logger) (SpeechService, error) {
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio dir %s: %w", cfg.AudioDir, err)
	}
	abs, err := filepath.Abs(cfg.AudioDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for %s: %w", cfg.AudioDir, err)
	}
	cfg.AudioDir = abs
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &elevenLabsSpeech{cfg: cfg, httpClient: httpClient, metrics: metrics, log: log, now: time.Now}, nil
}

func (s *elevenLabsSpeech) Enabled() bool { return s.cfg.APIKey != "" }

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (s *elevenLabsSpeech) Synthesize(ctx context.Context, text string) (string, bool) {
	if !s.Enabled() {
		s.log.Debug("speech: no api key, skipping")
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	audio, err := s.requestSpeech(ctx, text)
	if err != nil {
		s.log.Error("speech: synthesis failed", zap.Error(err))
		s.metrics.observeSpeech("error")
		return "", false
	}

	filename := fmt.Sprintf("speech_%s_%s.mp3", s.now().Format("20060102_150405"), uuid.New().String()[:8])
	if err := os.WriteFile(filepath.Join(s.cfg.AudioDir, filename), audio, 0o644); err != nil {
		s.log.Error("speech: could not save audio", zap.String("file", filename), zap.Error(err))
		s.metrics.observeSpeech("error")
		return "", false
	}

	s.log.Info("speech: audio generated", zap.String("file", filename), zap.Int("chars", len(text)))
	s.metrics.observeSpeech("ok")
	return AudioURLPrefix + filename, true
}

func (s *elevenLabsSpeech) requestSpeech(ctx context.Context, text string) ([]byte, error) {
	reqBody, err := json.Marshal(ttsRequest{Text: text, ModelID: s.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	endpoint := s.cfg.BaseURL + "/v1/text-to-speech/" + s.cfg.VoiceID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", s.cfg.APIKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("elevenlabs returned empty audio")
	}
	return audio, nil
}

// AudioPath resolves a filename inside the audio directory.
func (s *elevenLabsSpeech) AudioPath(filename string) (string, error) {
	clean := filepath.Base(filename)
	if clean != filename || !strings.HasSuffix(clean, ".mp3") {
		return "", ErrAudioNotFound
	}
	path := filepath.Join(s.cfg.AudioDir, clean)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrAudioNotFound
	}
	return path, nil
}

// CleanupOldAudio deletes .mp3 files last modified more than maxAge ago.
func (s *elevenLabsSpeech) CleanupOldAudio(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.cfg.AudioDir)
	if err != nil {
		return 0, fmt.Errorf("failed to list audio dir: %w", err)
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp3") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.cfg.AudioDir, e.Name())); err != nil {
				s.log.Warn("speech: could not remove old audio", zap.String("file", e.Name()), zap.Error(err))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("speech: removed old audio files", zap.Int("count", removed))
	}
	return removed, nil
}

// RunCleanup sweeps the audio directory every interval until ctx is done.
func (s *elevenLabsSpeech) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanupOldAudio(maxAge); err != nil {
				s.log.Error("speech: cleanup failed", zap.Error(err))
			}
		}
	}
}
