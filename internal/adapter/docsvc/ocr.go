package docsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

type OCRClient struct {
	baseURL string
	client  *http.Client
}

func NewOCRClient(baseURL string, timeoutSeconds int) *OCRClient {
	return &OCRClient{
		baseURL: baseURL,
		client:  newHTTPClient(timeoutSeconds),
	}
}

// Recognize sends one JPEG page image and returns the recognized text.
func (c *OCRClient) Recognize(ctx context.Context, image []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return "", &ServiceError{Service: "ocr", Err: err}
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ServiceError{Service: "ocr", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ServiceError{Service: "ocr", Status: resp.StatusCode}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ServiceError{Service: "ocr", Err: err}
	}
	return result.Text, nil
}
