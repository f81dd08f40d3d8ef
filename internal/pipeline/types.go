package pipeline

import (
	"context"
)

// IndexedChunk is one embedded chunk handed to the vector store.
type IndexedChunk struct {
	Content    string
	Vector     []float32
	DocumentID string
	URL        string
	Title      string
	PageNumber int
	ChunkIndex int
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type OCRClient interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type ChunkIndexer interface {
	StoreChunk(ctx context.Context, chunk IndexedChunk) error
}

// Events receives lifecycle notifications. State is persisted before any
// of these fire.
type Events interface {
	JobStatus(ctx context.Context, jobID, status string, progress int)
	JobCompleted(ctx context.Context, jobID, documentID string)
	JobFailed(ctx context.Context, jobID, reason string)
}
