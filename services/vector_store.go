package services

import (
	"context"
	"errors"

	"github.com/itish2003/simplybot/models"
)

// VectorStore persists embedded chunks and searches them by similarity.
type VectorStore interface {
	// EnsureCollection creates the collection with the given vector size if it
	// is missing, and fails with ErrCollectionDimension if it exists with
	// another size.
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []models.StoredChunk) error
	Search(ctx context.Context, vector []float32, limit int) ([]models.RetrievedDocument, error)
	Info(ctx context.Context) (*models.CollectionInfo, error)
	Health(ctx context.Context) error
	Close() error
}

// ErrCollectionDimension means the collection was created for a different
// embedding backend.
var ErrCollectionDimension = errors.New("collection vector size does not match embedding backend")

// ErrCollectionNotFound is returned by Info when the collection is missing.
var ErrCollectionNotFound = errors.New("collection not found")

// Chunk payload keys.
const (
	payloadContent     = "content"
	payloadSource      = "source"
	payloadTitle       = "title"
	payloadContentType = "content_type"
	payloadAddedAt     = "added_at"
	payloadPage        = "page"
	payloadChunk       = "chunk"
)
