// Package text splits extracted document text into bounded segments for
// embedding.
package text

import "strings"

// DefaultChunkSize is the soft maximum chunk length in characters.
const DefaultChunkSize = 500

// Split breaks text into contiguous, space-delimited chunks of at most
// maxLen characters. The bound is soft: a single word longer than maxLen
// becomes its own oversized chunk rather than being split mid-word. Word
// order is preserved, no chunk is empty, and identical input always yields
// identical output.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, word := range words {
		// +1 accounts for the joining space.
		if current.Len() > 0 && current.Len()+1+len(word) > maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
