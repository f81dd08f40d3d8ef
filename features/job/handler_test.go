package job

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(repo Repository) *Handler {
	return NewHandler(NewService(repo, &fakeRunner{}, &fakeBroadcaster{}))
}

func TestHandler_Create(t *testing.T) {
	h := newTestHandler(&fakeRepo{})

	t.Run("Created", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs",
			strings.NewReader(`{"url":"https://example.com/doc"}`))
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "https://example.com/doc", data["url"])
		assert.Equal(t, "queued", data["status"])
	})

	t.Run("InvalidURL", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs",
			strings.NewReader(`{"url":"not-a-url"}`))
		rec := httptest.NewRecorder()

		h.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		errObj := body["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{`))
		rec := httptest.NewRecorder()

		h.Create(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_CreateBatch(t *testing.T) {
	h := newTestHandler(&fakeRepo{})

	t.Run("Created", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs/batch",
			strings.NewReader(`{"urls":["https://example.com/a","https://example.com/b"]}`))
		rec := httptest.NewRecorder()

		h.CreateBatch(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		meta := body["meta"].(map[string]interface{})
		assert.EqualValues(t, 2, meta["count"])
	})

	t.Run("OneInvalidRejectsAll", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/jobs/batch",
			strings.NewReader(`{"urls":["https://example.com/a","bogus"]}`))
		rec := httptest.NewRecorder()

		h.CreateBatch(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_Get(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo := &fakeRepo{getJob: &Job{ID: "job-1", URL: "https://example.com", Status: StatusCompleted}}
		h := newTestHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil)
		req.SetPathValue("id", "job-1")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := &fakeRepo{getErr: sql.ErrNoRows}
		h := newTestHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/jobs/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()

		h.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Cancel(t *testing.T) {
	t.Run("Cancelled", func(t *testing.T) {
		repo := &fakeRepo{cancelOK: true}
		h := newTestHandler(repo)

		req := httptest.NewRequest(http.MethodDelete, "/jobs/job-1", nil)
		req.SetPathValue("id", "job-1")
		rec := httptest.NewRecorder()

		h.Cancel(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Conflict", func(t *testing.T) {
		repo := &fakeRepo{cancelOK: false, getJob: &Job{ID: "job-1", Status: StatusEmbedding}}
		h := newTestHandler(repo)

		req := httptest.NewRequest(http.MethodDelete, "/jobs/job-1", nil)
		req.SetPathValue("id", "job-1")
		rec := httptest.NewRecorder()

		h.Cancel(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := &fakeRepo{cancelOK: false, getErr: sql.ErrNoRows}
		h := newTestHandler(repo)

		req := httptest.NewRequest(http.MethodDelete, "/jobs/missing", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()

		h.Cancel(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
