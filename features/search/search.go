package search

import "context"

// SearchResult is one chunk hit returned by the vector store.
type SearchResult struct {
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
	DocumentID string  `json:"documentId,omitempty"`
	PageNumber int     `json:"pageNumber,omitempty"`
	ChunkIndex int     `json:"chunkIndex,omitempty"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type VectorStore interface {
	Search(ctx context.Context, query string, vector []float32, limit int) ([]SearchResult, error)
}
