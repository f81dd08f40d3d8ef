package docsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

type EmbedClient struct {
	baseURL string
	client  *http.Client
}

func NewEmbedClient(baseURL string, timeoutSeconds int) *EmbedClient {
	return &EmbedClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeoutSeconds),
	}
}

// Embed returns the embedding vector for a piece of text.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, &ServiceError{Service: "embedding", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Service: "embedding", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Service: "embedding", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Service: "embedding", Status: resp.StatusCode}
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ServiceError{Service: "embedding", Err: err}
	}
	if len(result.Embedding) == 0 {
		return nil, &ServiceError{Service: "embedding", Err: errEmptyEmbedding}
	}
	return result.Embedding, nil
}
