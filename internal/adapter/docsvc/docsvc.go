// Package docsvc holds HTTP clients for the auxiliary document services:
// the OCR service that reads page images and the embedding service that
// turns text into vectors. Calls are made once; there are no retries, a
// failed call surfaces to the caller as a ServiceError.
package docsvc

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errEmptyEmbedding = errors.New("empty embedding in response")

// ServiceError reports a failed call to an auxiliary service.
type ServiceError struct {
	Service string
	Status  int
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s service error: status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s service error: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newHTTPClient(timeoutSeconds int) *http.Client {
	c := &http.Client{}
	if timeoutSeconds > 0 {
		c.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return c
}
