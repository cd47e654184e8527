package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsk-labs/label-sorter/internal/export"
	"github.com/jsk-labs/label-sorter/internal/history"
	"github.com/jsk-labs/label-sorter/internal/label"
	"github.com/jsk-labs/label-sorter/internal/server"
	"github.com/jsk-labs/label-sorter/internal/sorter"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, store *history.Store) *gin.Engine {
	t.Helper()
	s := sorter.New(sorter.Config{}, label.NewParser(nil), nil)
	h := server.NewHandler(s, export.NewService(nil), store, 1<<20, nil)
	return server.Setup(h, nil)
}

func memoryStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func uploadRequest(t *testing.T, target string, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "labels.pdf")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorCode(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body.Bytes(), &payload))
	return payload.Error.Code
}

func TestHealthz(t *testing.T) {
	r := newRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSort_MissingFileField(t *testing.T) {
	r := newRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/sort", "document", []byte("x")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w.Body))
}

func TestSort_OversizedUpload(t *testing.T) {
	s := sorter.New(sorter.Config{}, label.NewParser(nil), nil)
	h := server.NewHandler(s, export.NewService(nil), nil, 16, nil)
	r := server.Setup(h, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/sort", "file", bytes.Repeat([]byte("a"), 64)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", errorCode(t, w.Body))
}

func TestSort_UnparsableDocument(t *testing.T) {
	r := newRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/v1/sort", "file", []byte("not a pdf")))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SORT_FAILED", errorCode(t, w.Body))
}

func TestRuns_HistoryDisabled(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "HISTORY_DISABLED", errorCode(t, w.Body))
}

func TestRuns_ListAndGet(t *testing.T) {
	store := memoryStore(t)
	res := &sorter.SortResult{
		RunID:      uuid.New(),
		TotalPages: 1,
		OutputDir:  t.TempDir(),
		Files: []sorter.OutputFile{
			{
				Name:      "2026-01-17_Ekart_SKU-1.pdf",
				Key:       label.GroupKey{InvoiceDate: "2026-01-17", Courier: "Ekart", SKU: "SKU-1"},
				PageCount: 1,
			},
		},
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveRun(context.Background(), res))
	r := newRouter(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []history.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, res.RunID.String(), list.Runs[0].ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+res.RunID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Run   history.RunRecord    `json:"run"`
		Files []history.FileRecord `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, res.RunID.String(), got.Run.ID)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "2026-01-17_Ekart_SKU-1.pdf", got.Files[0].Name)
}

func TestRuns_GetErrors(t *testing.T) {
	r := newRouter(t, memoryStore(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RUN_ID", errorCode(t, w.Body))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RUN_NOT_FOUND", errorCode(t, w.Body))
}
