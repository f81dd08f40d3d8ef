package document

import (
	"time"

	"docgarden/features/job"
)

// Chunk is one bounded text span and its embedding vector. Chunks are owned
// by their parent document and never shared.
type Chunk struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Page is one physical page of a PDF, or the single synthetic page of an
// HTML document. Page-local chunks are assigned by a prefix-match heuristic
// and are an approximation of the true layout, not an exact mapping.
type Page struct {
	PageNumber int     `json:"page_number"`
	ImageURL   string  `json:"image_url,omitempty"`
	Text       string  `json:"text"`
	Chunks     []Chunk `json:"chunks"`
}

// Document is the durable artifact of a successfully completed job. It is
// written exactly once, at the end of the pipeline run, and only mutated
// afterwards through the metadata and group endpoints.
type Document struct {
	ID           string                 `json:"id"`
	URL          string                 `json:"url"`
	Title        string                 `json:"title"`
	DocumentType job.DocumentType       `json:"document_type"`
	Text         string                 `json:"text"`
	HTMLContent  string                 `json:"html_content,omitempty"`
	Pages        []Page                 `json:"pages"`
	Chunks       []Chunk                `json:"chunks"`
	GroupIDs     []string               `json:"groups"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
