package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/agent/extractor"
	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

const promptTextLimit = 500

// OllamaResponse is the non-streaming /api/generate reply.
type OllamaResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type OllamaClient struct {
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

func NewOllamaClient(config *cfg.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		endpoint:    strings.TrimRight(config.Endpoint, "/"),
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate sends prompt to the model and returns its raw reply.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"num_predict": c.maxTokens,
			"temperature": c.temperature,
		},
	}

	reqData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(reqData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}

	return result.Response, nil
}

func (c *OllamaClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// OllamaClientPool bounds the number of in-flight model calls.
type OllamaClientPool struct {
	clients   chan *OllamaClient
	timeout   time.Duration
	closeOnce sync.Once
}

func NewOllamaClientPool(config *cfg.OllamaConfig) *OllamaClientPool {
	size := config.MaxPoolSize
	if size < 1 {
		size = 1
	}
	pool := &OllamaClientPool{
		clients: make(chan *OllamaClient, size),
		timeout: config.PoolTimeout,
	}
	for i := 0; i < size; i++ {
		pool.clients <- NewOllamaClient(config)
	}
	return pool
}

func (p *OllamaClientPool) Get(ctx context.Context) (*OllamaClient, error) {
	select {
	case client := <-p.clients:
		return client, nil
	case <-time.After(p.timeout):
		return nil, fmt.Errorf("timeout waiting for available client")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *OllamaClientPool) Put(client *OllamaClient) {
	select {
	case p.clients <- client:
	default:
	}
}

// Close releases idle clients. Call it once no request is in flight.
func (p *OllamaClientPool) Close() error {
	p.closeOnce.Do(func() {
		close(p.clients)
		for client := range p.clients {
			client.Close()
		}
	})
	return nil
}

// OllamaClassifier asks a local model for the document type and falls back
// to keyword rules whenever the model cannot answer.
type OllamaClassifier struct {
	pool   *OllamaClientPool
	text   extractor.TextExtractor
	logger logger.Logger
}

func NewOllamaClassifier(config *cfg.OllamaConfig, text extractor.TextExtractor, log logger.Logger) *OllamaClassifier {
	if text == nil {
		text = extractor.NewNopTextExtractor()
	}
	return &OllamaClassifier{
		pool:   NewOllamaClientPool(config),
		text:   text,
		logger: log,
	}
}

func (c *OllamaClassifier) Classify(ctx context.Context, p string) (models.ClassificationResult, error) {
	text, err := c.text.Extract(ctx, p)
	if err != nil {
		c.logger.Warn("Classifying without document text",
			logger.String("path", p),
			logger.Error(err),
		)
		text = ""
	}
	return c.ClassifyText(ctx, p, text)
}

func (c *OllamaClassifier) ClassifyText(ctx context.Context, p, text string) (models.ClassificationResult, error) {
	filename := baseName(p)
	result, err := c.ask(ctx, filename, text)
	if err != nil {
		c.logger.Warn("Model classification failed, using keyword rules",
			logger.String("path", p),
			logger.Error(err),
		)
		return MatchKeywords(filename, text), nil
	}
	return result, nil
}

func (c *OllamaClassifier) ask(ctx context.Context, filename, text string) (models.ClassificationResult, error) {
	client, err := c.pool.Get(ctx)
	if err != nil {
		return models.ClassificationResult{}, err
	}
	defer c.pool.Put(client)

	reply, err := client.Generate(ctx, buildPrompt(filename, text))
	if err != nil {
		return models.ClassificationResult{}, err
	}
	return parseReply(reply)
}

func (c *OllamaClassifier) Close() error {
	return c.pool.Close()
}

func buildPrompt(filename, text string) string {
	if r := []rune(text); len(r) > promptTextLimit {
		text = string(r[:promptTextLimit])
	}

	var b strings.Builder
	b.WriteString("You are a document classifier for an insurance company.\n\n")
	b.WriteString("Given the following document text and filename, classify the document type.\n\n")
	b.WriteString("Available document types:\n")
	b.WriteString(strings.Join(DocumentTypes, ", "))
	fmt.Fprintf(&b, "\n\nFilename: %s\n\nDocument text (first %d chars):\n%s\n\n", filename, promptTextLimit, text)
	b.WriteString(`Respond ONLY with valid JSON in this exact format:
{"documentType": "one of the available types", "confidence": 85, "notes": "brief reasoning"}`)
	return b.String()
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type modelAnswer struct {
	DocumentType string  `json:"documentType"`
	Confidence   float64 `json:"confidence"`
	Notes        string  `json:"notes"`
}

// parseReply reads the JSON object embedded in the model's reply.
// Confidences above 1 are percentages; a missing one counts as 50%.
func parseReply(reply string) (models.ClassificationResult, error) {
	raw := jsonObject.FindString(reply)
	if raw == "" {
		return models.ClassificationResult{}, fmt.Errorf("%w: no JSON in model reply", models.ErrModelLoad)
	}

	var ans modelAnswer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("%w: could not parse model reply: %v", models.ErrModelLoad, err)
	}

	confidence := ans.Confidence
	switch {
	case confidence <= 0:
		confidence = 0.5
	case confidence > 1:
		confidence /= 100
	}
	if confidence > 1 {
		confidence = 1
	}

	category := ans.DocumentType
	if category == "" {
		category = models.CategoryUnknown
	}

	return models.ClassificationResult{
		Category:   category,
		Confidence: confidence,
		Notes:      ans.Notes,
	}, nil
}

var _ TextClassifier = (*OllamaClassifier)(nil)
