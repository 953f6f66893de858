package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

const chromaDimensionKey = "dimension"

var errChromaEmbedding = errors.New("chroma collection expects precomputed vectors")

// suppliedVectors stands in for chroma's own embedding function. Without it
// the client falls back to its bundled ONNX model, which it downloads on first
// use. Every Add and Query here passes vectors, so it is never called.
type suppliedVectors struct{}

func (suppliedVectors) EmbedDocuments(context.Context, []string) ([]embeddings.Embedding, error) {
	return nil, errChromaEmbedding
}

func (suppliedVectors) EmbedQuery(context.Context, string) (embeddings.Embedding, error) {
	return nil, errChromaEmbedding
}

// ChromaStore is the alternative backend for deployments that already run
// Chroma. Vectors are always supplied by the configured Embedder.
type ChromaStore struct {
	client     chromago.Client
	collection chromago.Collection
	name       string
	log        *zap.Logger
}

func NewChromaStore(baseURL, name string, log *zap.Logger) (*ChromaStore, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}
	return &ChromaStore{client: client, name: name, log: log}, nil
}

func (s *ChromaStore) EnsureCollection(ctx context.Context, dimension int) error {
	col, err := s.client.GetOrCreateCollection(
		ctx,
		s.name,
		chromago.WithEmbeddingFunctionCreate(suppliedVectors{}),
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "SimplyBot document chunks"),
				chromago.NewStringAttribute("hnsw:space", "cosine"),
				chromago.NewIntAttribute(chromaDimensionKey, int64(dimension)),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to get or create collection %s: %w", s.name, err)
	}

	meta := metadataToMap(col.Metadata(), s.log)
	if v, ok := meta[chromaDimensionKey].(float64); ok && int(v) != dimension {
		return fmt.Errorf("%w: %s has %d, backend produces %d", ErrCollectionDimension, s.name, int(v), dimension)
	}
	s.collection = col
	return nil
}

// Upsert writes all chunks in a single Add request.
func (s *ChromaStore) Upsert(ctx context.Context, chunks []models.StoredChunk) error {
	if s.collection == nil {
		return ErrCollectionNotFound
	}
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	vectors := make([]embeddings.Embedding, 0, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, 0, len(chunks))
	for _, c := range chunks {
		md := []*chromago.MetaAttribute{
			chromago.NewStringAttribute(payloadSource, c.Metadata.Source),
			chromago.NewStringAttribute(payloadTitle, c.Metadata.Title),
			chromago.NewStringAttribute(payloadContentType, c.Metadata.ContentType),
			chromago.NewStringAttribute(payloadAddedAt, c.Metadata.AddedAt),
			chromago.NewIntAttribute(payloadChunk, int64(c.Metadata.Chunk)),
		}
		if c.Metadata.Page > 0 {
			md = append(md, chromago.NewIntAttribute(payloadPage, int64(c.Metadata.Page)))
		}

		ids = append(ids, chromago.DocumentID(c.ID))
		texts = append(texts, c.Content)
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(c.Vector))
		metadatas = append(metadatas, chromago.NewDocumentMetadata(md...))
	}

	err := s.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add %d chunks to chroma: %w", len(chunks), err)
	}
	return nil
}

func (s *ChromaStore) Search(ctx context.Context, vector []float32, limit int) ([]models.RetrievedDocument, error) {
	if s.collection == nil {
		return nil, ErrCollectionNotFound
	}
	results, err := s.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()

	docs := make([]models.RetrievedDocument, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		rd := models.RetrievedDocument{Content: doc.ContentString()}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) && metadataGroups[0][i] != nil {
			// DocumentMetadata has no typed accessors; round-trip through JSON.
			if raw, err := json.Marshal(metadataGroups[0][i]); err == nil {
				if err := json.Unmarshal(raw, &rd.Metadata); err != nil {
					s.log.Warn("could not decode chroma metadata", zap.Error(err))
				}
			}
		}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			// cosine distance
			rd.Score = 1 - float64(distanceGroups[0][i])
		}
		docs = append(docs, rd)
	}
	return docs, nil
}

func (s *ChromaStore) Info(ctx context.Context) (*models.CollectionInfo, error) {
	if s.collection == nil {
		return nil, ErrCollectionNotFound
	}
	count, err := s.collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items in collection: %w", err)
	}
	info := &models.CollectionInfo{
		Name:         s.name,
		VectorsCount: uint64(count),
		Status:       "green",
	}
	if v, ok := metadataToMap(s.collection.Metadata(), s.log)[chromaDimensionKey].(float64); ok {
		info.Dimension = int(v)
	}
	return info, nil
}

func (s *ChromaStore) Health(ctx context.Context) error {
	if err := s.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("chroma heartbeat failed: %w", err)
	}
	return nil
}

func (s *ChromaStore) Close() error {
	return s.client.Close()
}

func metadataToMap(v any, log *zap.Logger) map[string]any {
	out := map[string]any{}
	if v == nil {
		return out
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn("could not marshal chroma metadata", zap.Error(err))
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn("could not unmarshal chroma metadata", zap.Error(err))
	}
	return out
}
