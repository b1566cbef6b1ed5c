package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

type fixedText struct {
	text string
	err  error
}

func (f fixedText) Extract(ctx context.Context, path string) (string, error) {
	return f.text, f.err
}

func TestNopClassifier(t *testing.T) {
	for _, modelPath := range []string{"", "models/clf.bin"} {
		c := NewNopClassifier(modelPath)
		assert.Equal(t, modelPath, c.ModelPath())

		for _, p := range []string{"a.pdf", "/no/such/file", ""} {
			got, err := c.Classify(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, models.ClassificationResult{Category: "unknown", Confidence: 0.0}, got)
		}
	}
}

func TestMatchKeywords(t *testing.T) {
	tests := []struct {
		filename   string
		text       string
		category   string
		confidence float64
	}{
		{"ca12135endo060225.pdf", "", "Endorsement", 0.80},
		{"scan.pdf", "Motor Vehicle Record", "MVR", 0.85},
		{"scan.pdf", "repair estimate attached", "Appraisal", 0.75},
		{"scan.pdf", "Claim number 42", "CLAIM FILE", 0.70},
		{"scan.pdf", "Certificate of insurance", "CERT OF LIABILITY", 0.75},
		{"scan.pdf", "please cancel", "Cancellation notice", 0.70},
		{"scan.pdf", "payment enclosed", "Claim Payment Request", 0.65},
		{"scan.pdf", "hello there", "Correspondence", 0.40},
		// Rule order decides between several hits.
		{"mvr.pdf", "endorsement", "Endorsement", 0.80},
	}

	for _, tt := range tests {
		got := MatchKeywords(tt.filename, tt.text)
		assert.Equal(t, tt.category, got.Category, tt.text)
		assert.InDelta(t, tt.confidence, got.Confidence, 1e-9, tt.text)
		assert.NotEmpty(t, got.Notes)
	}
}

func TestKeywordClassifierUsesFileNameWhenTextFails(t *testing.T) {
	log := logger.NewTestLogger()
	c := NewKeywordClassifier(fixedText{err: errors.New("no text layer")}, log)

	got, err := c.Classify(context.Background(), "/in/GALIMO0001811mvr2060225.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "MVR", got.Category)
	assert.Len(t, log.Messages("WARN"), 1)
}

func TestKeywordClassifierIgnoresDirectories(t *testing.T) {
	c := NewKeywordClassifier(nil, logger.NewNop())

	got, err := c.Classify(context.Background(), "claims/letters/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Correspondence", got.Category)
	assert.InDelta(t, 0.40, got.Confidence, 1e-9)
}

func ollamaServer(t *testing.T, reply string, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.Contains(t, body["prompt"], "Letter of Guarantee")

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(OllamaResponse{Response: reply, Model: "test-model", Done: true})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func ollamaConfig(endpoint string) *cfg.OllamaConfig {
	return &cfg.OllamaConfig{
		Endpoint:    endpoint,
		Model:       "test-model",
		MaxTokens:   200,
		Temperature: 0.1,
		MaxPoolSize: 2,
		PoolTimeout: time.Second,
	}
}

func TestOllamaClassifierParsesModelReply(t *testing.T) {
	srv, calls := ollamaServer(t, "Sure!\n{\"documentType\": \"BI Demand\", \"confidence\": 90, \"notes\": \"demand letter\"}", http.StatusOK)
	c := NewOllamaClassifier(ollamaConfig(srv.URL), fixedText{text: "We demand payment for bodily injury"}, logger.NewTestLogger())
	defer c.Close()

	got, err := c.Classify(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "BI Demand", got.Category)
	assert.InDelta(t, 0.90, got.Confidence, 1e-9)
	assert.Equal(t, "demand letter", got.Notes)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestOllamaClassifierFallsBackToKeywords(t *testing.T) {
	srv, _ := ollamaServer(t, "", http.StatusInternalServerError)
	log := logger.NewTestLogger()
	c := NewOllamaClassifier(ollamaConfig(srv.URL), fixedText{text: "endorsement schedule"}, log)
	defer c.Close()

	got, err := c.Classify(context.Background(), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "Endorsement", got.Category)
	assert.Len(t, log.Messages("WARN"), 1)
}

func TestOllamaClassifyTextSkipsExtraction(t *testing.T) {
	srv, calls := ollamaServer(t, `{"documentType": "MVR", "confidence": 0.8}`, http.StatusOK)
	c := NewOllamaClassifier(ollamaConfig(srv.URL), fixedText{err: errors.New("must not be called")}, logger.NewTestLogger())
	defer c.Close()

	got, err := c.ClassifyText(context.Background(), "scan.png", "motor vehicle report")
	require.NoError(t, err)
	assert.Equal(t, "MVR", got.Category)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestKeywordClassifyTextUsesGivenText(t *testing.T) {
	log := logger.NewTestLogger()
	c := NewKeywordClassifier(fixedText{err: errors.New("must not be called")}, log)

	got, err := c.ClassifyText(context.Background(), "scan.png", "notice of cancellation")
	require.NoError(t, err)
	assert.Equal(t, "Cancellation notice", got.Category)
	assert.Empty(t, log.Messages("WARN"))
}

func TestOllamaClientPoolCloseIsIdempotent(t *testing.T) {
	pool := NewOllamaClientPool(ollamaConfig("http://127.0.0.1:1"))

	client, err := pool.Get(context.Background())
	require.NoError(t, err)
	pool.Put(client)

	assert.NoError(t, pool.Close())
	assert.NoError(t, pool.Close())
}

func TestParseReply(t *testing.T) {
	got, err := parseReply(`{"documentType":"MVR","confidence":0.7}`)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)

	got, err = parseReply(`{"documentType":""}`)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryUnknown, got.Category)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)

	_, err = parseReply("I cannot help with that")
	assert.ErrorIs(t, err, models.ErrModelLoad)
}

func TestBuildPromptTruncatesText(t *testing.T) {
	prompt := buildPrompt("a.pdf", strings.Repeat("é", 2000))
	assert.Equal(t, promptTextLimit, strings.Count(prompt, "é"))
}
