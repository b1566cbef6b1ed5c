package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/doc-intelligence/api/handlers"
	"github.com/feichai0017/doc-intelligence/api/middleware"
	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/agent/extractor"
	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/internal/service/document"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/queue"
	"github.com/feichai0017/doc-intelligence/pkg/storage/local"
)

type memQueue struct {
	mu       sync.Mutex
	statuses map[string]*models.ProcessingTask
	fail     map[string]bool
}

func newMemQueue() *memQueue {
	return &memQueue{statuses: make(map[string]*models.ProcessingTask)}
}

func (q *memQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	if q.fail[task.Path] {
		return errors.New("redis unavailable")
	}
	if _, err := queue.NewAsynqTask(task); err != nil {
		return err
	}
	return q.SaveStatus(ctx, queue.PendingStatus(task))
}

func (q *memQueue) GetTaskStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.statuses[taskID]
	if !ok {
		return nil, queue.ErrTaskNotFound
	}
	return s, nil
}

func (q *memQueue) CancelTask(ctx context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.statuses[taskID]
	if !ok {
		return queue.ErrTaskNotFound
	}
	s.Status = models.StatusCancelled
	return nil
}

func (q *memQueue) SaveStatus(ctx context.Context, status *models.ProcessingTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[status.ID] = status
	return nil
}

type testServer struct {
	engine *gin.Engine
	dir    string
	queue  *memQueue
}

func newTestServer(t *testing.T, withQueue bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	log := logger.NewTestLogger()
	pipeline := document.NewPipeline(
		document.NewProcessor(document.WithLogger(log)),
		document.WithEntityExtractor(extractor.NewPatternEntityExtractor()),
	)

	ts := &testServer{engine: gin.New(), dir: dir}
	var q queue.Queue
	if withQueue {
		ts.queue = newMemQueue()
		q = ts.queue
	}

	appConfig := &cfg.AppConfig{Env: "staging", ServiceName: "doc-intelligence", Version: "1.0.0"}
	h := handlers.NewHandlers(appConfig, pipeline, local.NewLocalStorage(filepath.Join(dir, "uploads"), log), q, log)
	SetupRoutes(ts.engine, h, log)
	return ts
}

func (ts *testServer) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthRoutes(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"status":      "healthy",
		"service":     "doc-intelligence",
		"environment": "staging",
	}, decode(t, w))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = ts.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "staging", body["environment"])
	assert.NotEmpty(t, body["message"])

	w = ts.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", w.Body.String())
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
}

func TestProcessRoute(t *testing.T) {
	ts := newTestServer(t, false)
	path := filepath.Join(ts.dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	w := ts.do(http.MethodPost, "/api/v1/documents/process", handlers.PathRequest{Path: path})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{
		"status": "processed",
		"path":   path,
		"type":   ".txt",
		"data":   map[string]interface{}{},
	}, decode(t, w))

	w = ts.do(http.MethodPost, "/api/v1/documents/process", handlers.PathRequest{Path: filepath.Join(ts.dir, "missing.pdf")})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "missing.pdf")

	w = ts.do(http.MethodPost, "/api/v1/documents/process", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeAndClassifyRoutes(t *testing.T) {
	ts := newTestServer(t, false)
	path := filepath.Join(ts.dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	w := ts.do(http.MethodPost, "/api/v1/documents/analyze", handlers.PathRequest{Path: path})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, map[string]interface{}{"category": "unknown", "confidence": 0.0}, body["classification"])

	w = ts.do(http.MethodPost, "/api/v1/documents/classify", handlers.PathRequest{Path: path})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unknown", decode(t, w)["category"])
}

func TestEntitiesRoute(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodPost, "/api/v1/documents/entities", handlers.TextRequest{Text: "see gal0086drv060225.jpeg"})
	require.Equal(t, http.StatusOK, w.Code)
	entities := decode(t, w)["entities"].([]interface{})
	require.Len(t, entities, 3)
	assert.Equal(t, "GAL0086", entities[0].(map[string]interface{})["value"])
}

func TestUploadRoute(t *testing.T) {
	ts := newTestServer(t, false)

	upload := func(name, content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, req)
		return w
	}

	w := upload("notes.txt", "some notes")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, ".txt", result["type"])
	assert.True(t, strings.HasPrefix(result["path"].(string), filepath.Join(ts.dir, "uploads")))
	assert.FileExists(t, result["path"].(string))

	w = upload("archive.zip", "PK")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestBatchUploadRoute(t *testing.T) {
	ts := newTestServer(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range map[string]string{"notes.txt": "some notes", "archive.zip": "PK"} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)
	assert.EqualValues(t, 1, got["accepted"])

	items := got["items"].([]interface{})
	require.Len(t, items, 2)
	byName := map[string]map[string]interface{}{}
	for _, it := range items {
		item := it.(map[string]interface{})
		byName[item["file"].(map[string]interface{})["filename"].(string)] = item
	}

	assert.Equal(t, ".txt", byName["notes.txt"]["result"].(map[string]interface{})["type"])
	assert.Nil(t, byName["archive.zip"]["result"])
	assert.NotEmpty(t, byName["archive.zip"]["errors"])
}

func TestBatchUploadRequiresFiles(t *testing.T) {
	ts := newTestServer(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "nothing attached"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskReportsPartialFailure(t *testing.T) {
	ts := newTestServer(t, true)
	ts.queue.fail = map[string]bool{"b.pdf": true}

	w := ts.do(http.MethodPost, "/api/v1/tasks", handlers.TaskRequest{Paths: []string{"a.pdf", "b.pdf"}})
	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())

	tasks := decode(t, w)["tasks"].([]interface{})
	require.Len(t, tasks, 2)
	queued := tasks[0].(map[string]interface{})
	failed := tasks[1].(map[string]interface{})

	assert.Equal(t, "a.pdf", queued["path"])
	assert.Equal(t, "pending", queued["status"])
	id := queued["taskId"].(string)
	assert.Contains(t, ts.queue.statuses, id)

	assert.Equal(t, "b.pdf", failed["path"])
	assert.Equal(t, "failed", failed["status"])
	assert.Nil(t, failed["taskId"])
	assert.Contains(t, failed["error"], "redis unavailable")

	w = ts.do(http.MethodDelete, "/api/v1/tasks/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateTaskAllFailed(t *testing.T) {
	ts := newTestServer(t, true)
	ts.queue.fail = map[string]bool{"a.pdf": true}

	w := ts.do(http.MethodPost, "/api/v1/tasks", handlers.TaskRequest{Path: "a.pdf"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTaskRoutes(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(http.MethodPost, "/api/v1/tasks", handlers.TaskRequest{Paths: []string{"a.pdf", "b.pdf"}, Priority: 1})
	require.Equal(t, http.StatusAccepted, w.Code)
	tasks := decode(t, w)["tasks"].([]interface{})
	require.Len(t, tasks, 2)
	id := tasks[0].(map[string]interface{})["taskId"].(string)
	require.NotEmpty(t, id)

	w = ts.do(http.MethodGet, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode(t, w)["status"])

	w = ts.do(http.MethodDelete, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusCancelled, ts.queue.statuses[id].Status)

	w = ts.do(http.MethodGet, "/api/v1/tasks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/tasks", handlers.TaskRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskRoutesNeedQueue(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(http.MethodGet, "/api/v1/tasks/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
