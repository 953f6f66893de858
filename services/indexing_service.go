package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

// ErrFileTooLarge is returned when an upload exceeds the size ceiling.
var ErrFileTooLarge = errors.New("file too large")

// watchSettle is how long a file must stay quiet before the watcher ingests it.
const watchSettle = 500 * time.Millisecond

// ValidateUpload checks extension and size before anything is parsed.
func ValidateUpload(filename string, size, maxBytes int64) error {
	if !IsSupportedFile(filename) {
		return fmt.Errorf("%w: %s (allowed: pdf, txt, docx)", ErrUnsupportedFileType, filepath.Ext(filename))
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, filename, size, maxBytes)
	}
	return nil
}

// IngestionService extracts, chunks, embeds and stores documents.
type IngestionService interface {
	// Ingest stores every chunk of the file and returns how many were written.
	// Files are not deduplicated: ingesting the same file twice stores its
	// chunks twice.
	Ingest(ctx context.Context, filename string, data []byte) (int, error)
	WatchDirectory(ctx context.Context, dirPath string)
}

type fileIndexingService struct {
	embedder  Embedder
	store     VectorStore
	chunkSize int
	metrics   *Metrics
	log       *zap.Logger
	now       func() time.Time
}

func NewIngestionService(embedder Embedder, store VectorStore, metrics *Metrics, log *zap.Logger) IngestionService {
	return &fileIndexingService{
		embedder:  embedder,
		store:     store,
		chunkSize: DefaultChunkSize,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

func (s *fileIndexingService) Ingest(ctx context.Context, filename string, data []byte) (int, error) {
	filename = filepath.Base(filename)
	sections, err := ExtractText(filename, data)
	if err != nil {
		return 0, fmt.Errorf("could not extract text from %s: %w", filename, err)
	}

	addedAt := s.now().UTC().Format(time.RFC3339)
	contentType := shortType(filename)

	var chunks []models.StoredChunk
	for _, sec := range sections {
		title := filename
		if sec.Page > 0 {
			title = fmt.Sprintf("%s - Page %d", filename, sec.Page)
		}
		for i, text := range ChunkText(sec.Text, s.chunkSize) {
			vec, err := s.embedder.Embed(ctx, text)
			if err != nil {
				return 0, fmt.Errorf("could not embed chunk %d of %s: %w", i, title, err)
			}
			chunks = append(chunks, models.StoredChunk{
				ID:      uuid.New().String(),
				Vector:  vec,
				Content: text,
				Metadata: models.DocumentMetadata{
					Source:      filename,
					Title:       title,
					ContentType: contentType,
					AddedAt:     addedAt,
					Page:        sec.Page,
					Chunk:       i + 1,
				},
			})
		}
	}
	if len(chunks) == 0 {
		s.log.Warn("indexer: no text found", zap.String("file", filename))
		return 0, nil
	}

	if err := s.store.Upsert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks of %s: %w", filename, err)
	}
	s.log.Info("indexer: file ingested", zap.String("file", filename), zap.Int("chunks", len(chunks)))
	s.metrics.observeIngested(contentType, len(chunks))
	return len(chunks), nil
}

// WatchDirectory ingests supported files as they appear in dirPath. Events for
// the same file are coalesced until it has been quiet for watchSettle.
func (s *fileIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Error("watcher: failed to create file watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dirPath); err != nil {
		s.log.Error("watcher: failed to add path", zap.String("dir", dirPath), zap.Error(err))
		return
	}
	s.log.Info("watcher: watching directory", zap.String("dir", dirPath))

	var (
		mu      sync.Mutex
		pending = map[string]*time.Timer{}
		wg      sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			if t.Stop() {
				wg.Done()
			}
		}
		mu.Unlock()
		wg.Wait()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok && t.Stop() {
			wg.Done()
		}
		wg.Add(1)
		var timer *time.Timer
		timer = time.AfterFunc(watchSettle, func() {
			defer wg.Done()
			mu.Lock()
			if pending[path] == timer {
				delete(pending, path)
			}
			mu.Unlock()
			s.ingestPath(ctx, path)
		})
		pending[path] = timer
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !IsSupportedFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				schedule(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Error("watcher: error", zap.Error(err))
		case <-ctx.Done():
			s.log.Info("watcher: context cancelled, shutting down")
			return
		}
	}
}

func (s *fileIndexingService) ingestPath(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("watcher: could not read file", zap.String("file", path), zap.Error(err))
		return
	}
	if _, err := s.Ingest(ctx, path, data); err != nil {
		s.log.Error("watcher: failed to ingest file", zap.String("file", path), zap.Error(err))
	}
}
