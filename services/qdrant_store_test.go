package services

import (
	"testing"

	qd "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itish2003/simplybot/models"
)

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		raw     string
		host    string
		port    int
		tls     bool
		wantErr bool
	}{
		{raw: "http://localhost:6334", host: "localhost", port: 6334},
		{raw: "http://qdrant", host: "qdrant", port: 6334},
		{raw: "https://xyz.cloud.qdrant.io:6334", host: "xyz.cloud.qdrant.io", port: 6334, tls: true},
		{raw: "localhost", wantErr: true},
		{raw: "http://host:abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, port, useTLS, err := parseQdrantURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.tls, useTLS)
		})
	}
}

func TestQdrantPayloadCarriesChunkMetadata(t *testing.T) {
	chunk := models.StoredChunk{
		ID:      "0b6a36b4-2f7c-4b8e-9a53-3c1f2f1b9d11",
		Content: "Qdrant stores vectors.",
		Metadata: models.DocumentMetadata{
			Source:      "guide.pdf",
			Title:       "guide.pdf - Page 2",
			ContentType: "pdf",
			AddedAt:     "2024-05-01T10:00:00Z",
			Page:        2,
			Chunk:       3,
		},
	}

	payload := buildQdrantPayload(chunk)
	assert.Equal(t, "Qdrant stores vectors.", payload[payloadContent].GetStringValue())
	assert.Equal(t, int64(2), payload[payloadPage].GetIntegerValue())

	doc := documentFromPayload(payload, 0.91)
	assert.Equal(t, chunk.Content, doc.Content)
	assert.Equal(t, chunk.Metadata, doc.Metadata)
	assert.InDelta(t, 0.91, doc.Score, 1e-9)
}

func TestQdrantPayloadOmitsPageForTextFiles(t *testing.T) {
	payload := buildQdrantPayload(models.StoredChunk{Metadata: models.DocumentMetadata{Source: "a.txt"}})
	_, ok := payload[payloadPage]
	assert.False(t, ok)
}

func TestDocumentFromPartialPayload(t *testing.T) {
	doc := documentFromPayload(map[string]*qd.Value{
		payloadContent: qd.NewValueString("only content"),
	}, 0.5)
	assert.Equal(t, "only content", doc.Content)
	assert.Empty(t, doc.Metadata.Source)
	assert.Zero(t, doc.Metadata.Page)
}
