package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wstore "docgarden/internal/adapter/weaviate"
	"docgarden/internal/app"
	"docgarden/internal/config"
	"docgarden/internal/testutils"
	"docgarden/internal/vector"
)

func TestSmoke_Startup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	require.NoError(t, vector.EnsureSchema(context.Background(),
		vector.NewSchemaAdapter(suite.Weaviate)))

	cfg := &config.Config{
		EmbedderProvider:    config.ProviderService,
		EmbeddingServiceURL: "http://localhost:4000",
		OCRServiceURL:       "http://localhost:4001",
		ChunkSize:           500,
		FetchTimeoutSeconds: 5,
		UploadDir:           t.TempDir(),
	}

	a, err := app.New(context.Background(), cfg, suite.DB, wstore.NewStore(suite.Weaviate), suite.NSQ)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler)
	defer srv.Close()

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 500*time.Millisecond)

	// A full submission round-trips through the handler, repo and migrations.
	resp, err := http.Post(srv.URL+"/jobs", "application/json",
		strings.NewReader(`{"url":"https://example.com/smoke"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "queued", created.Data.Status)

	listResp, err := http.Get(srv.URL + "/jobs")
	require.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
}
