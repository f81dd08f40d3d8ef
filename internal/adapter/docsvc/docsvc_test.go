package docsvc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOCRClient_Recognize(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0x01, 0x02}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ocr", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, image, body)

		json.NewEncoder(w).Encode(map[string]string{"text": "recognized text"})
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, 0)
	text, err := client.Recognize(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "recognized text", text)
}

func TestOCRClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"recognition failed"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, 0)
	_, err := client.Recognize(context.Background(), []byte{0xFF, 0xD8, 0xFF})
	require.Error(t, err)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "ocr", svcErr.Service)
	assert.Equal(t, http.StatusInternalServerError, svcErr.Status)
}

func TestEmbedClient_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "some chunk text", in["text"])

		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := NewEmbedClient(server.URL, 0)
	vec, err := client.Embed(context.Background(), "some chunk text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedClient_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float32{}})
	}))
	defer server.Close()

	client := NewEmbedClient(server.URL, 0)
	_, err := client.Embed(context.Background(), "text")
	require.Error(t, err)
}

func TestEmbedClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"embedding failed"}`, http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewEmbedClient(server.URL, 0)
	_, err := client.Embed(context.Background(), "text")

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "embedding", svcErr.Service)
	assert.Equal(t, http.StatusBadGateway, svcErr.Status)
}

func TestEmbedClient_ConnectionRefused(t *testing.T) {
	client := NewEmbedClient("http://127.0.0.1:1", 0)
	_, err := client.Embed(context.Background(), "text")
	require.Error(t, err)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Zero(t, svcErr.Status)
	assert.NotNil(t, svcErr.Unwrap())
}
