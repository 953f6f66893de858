package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	qd "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/itish2003/simplybot/models"
)

// QdrantStore keeps chunks in a single Qdrant collection with cosine distance.
type QdrantStore struct {
	client     *qd.Client
	collection string
	log        *zap.Logger
}

// NewQdrantStore connects to Qdrant over gRPC. rawURL carries host and port;
// without a port the gRPC default 6334 is used.
func NewQdrantStore(rawURL, apiKey, collection string, log *zap.Logger) (*QdrantStore, error) {
	host, port, useTLS, err := parseQdrantURL(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantStore{client: client, collection: collection, log: log}, nil
}

func parseQdrantURL(rawURL string) (string, int, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant url %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant url %q: missing host", rawURL)
	}
	port := 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", p, err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}

	if !exists {
		s.log.Info("creating collection", zap.String("collection", s.collection), zap.Int("dimension", dimension))
		err = s.client.CreateCollection(ctx, &qd.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
				Size:     uint64(dimension),
				Distance: qd.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", s.collection, err)
	}
	size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != uint64(dimension) {
		return fmt.Errorf("%w: %s has %d, backend produces %d", ErrCollectionDimension, s.collection, size, dimension)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, chunks []models.StoredChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qd.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qd.PointStruct{
			Id: &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: c.ID}},
			Vectors: &qd.Vectors{
				VectorsOptions: &qd.Vectors_Vector{Vector: &qd.Vector{Data: c.Vector}},
			},
			Payload: buildQdrantPayload(c),
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points to %s: %w", len(points), s.collection, err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]models.RetrievedDocument, error) {
	n := uint64(limit)
	points, err := s.client.Query(ctx, &qd.QueryPoints{
		CollectionName: s.collection,
		Query:          qd.NewQuery(vector...),
		WithPayload:    qd.NewWithPayload(true),
		Limit:          &n,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	docs := make([]models.RetrievedDocument, 0, len(points))
	for _, p := range points {
		docs = append(docs, documentFromPayload(p.GetPayload(), float64(p.GetScore())))
	}
	return docs, nil
}

func (s *QdrantStore) Info(ctx context.Context) (*models.CollectionInfo, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}
	if !exists {
		return nil, ErrCollectionNotFound
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", s.collection, err)
	}
	return &models.CollectionInfo{
		Name:         s.collection,
		VectorsCount: info.GetPointsCount(),
		Dimension:    int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
		Status:       info.GetStatus().String(),
	}, nil
}

func (s *QdrantStore) Health(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func buildQdrantPayload(c models.StoredChunk) map[string]*qd.Value {
	payload := map[string]*qd.Value{
		payloadContent:     qd.NewValueString(c.Content),
		payloadSource:      qd.NewValueString(c.Metadata.Source),
		payloadTitle:       qd.NewValueString(c.Metadata.Title),
		payloadContentType: qd.NewValueString(c.Metadata.ContentType),
		payloadAddedAt:     qd.NewValueString(c.Metadata.AddedAt),
		payloadChunk:       qd.NewValueInt(int64(c.Metadata.Chunk)),
	}
	if c.Metadata.Page > 0 {
		payload[payloadPage] = qd.NewValueInt(int64(c.Metadata.Page))
	}
	return payload
}

func documentFromPayload(payload map[string]*qd.Value, score float64) models.RetrievedDocument {
	return models.RetrievedDocument{
		Content: payload[payloadContent].GetStringValue(),
		Metadata: models.DocumentMetadata{
			Source:      payload[payloadSource].GetStringValue(),
			Title:       payload[payloadTitle].GetStringValue(),
			ContentType: payload[payloadContentType].GetStringValue(),
			AddedAt:     payload[payloadAddedAt].GetStringValue(),
			Page:        int(payload[payloadPage].GetIntegerValue()),
			Chunk:       int(payload[payloadChunk].GetIntegerValue()),
		},
		Score: score,
	}
}
