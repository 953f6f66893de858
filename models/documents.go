package models

// DocumentMetadata describes where a stored chunk came from.
type DocumentMetadata struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	AddedAt     string `json:"added_at"`
	Page        int    `json:"page,omitempty"`
	Chunk       int    `json:"chunk"`
}

// RetrievedDocument is a chunk returned from similarity search.
type RetrievedDocument struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
	Score    float64          `json:"score"`
}

// StoredChunk is what gets written to the vector store.
type StoredChunk struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata DocumentMetadata
}

// CollectionInfo summarizes the document collection.
type CollectionInfo struct {
	Name         string `json:"name"`
	VectorsCount uint64 `json:"vectors_count"`
	Dimension    int    `json:"dimension,omitempty"`
	Status       string `json:"status"`
}
