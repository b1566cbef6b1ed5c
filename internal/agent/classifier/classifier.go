package classifier

import (
	"context"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

// Classifier assigns a document category.
type Classifier interface {
	Classify(ctx context.Context, path string) (models.ClassificationResult, error)
}

// TextClassifier classifies with text the caller has already extracted.
type TextClassifier interface {
	Classifier
	ClassifyText(ctx context.Context, path, text string) (models.ClassificationResult, error)
}

// NopClassifier reports every document as unknown.
type NopClassifier struct {
	modelPath string
}

// NewNopClassifier keeps modelPath for callers but never loads it.
func NewNopClassifier(modelPath string) *NopClassifier {
	return &NopClassifier{modelPath: modelPath}
}

func (c *NopClassifier) ModelPath() string {
	return c.modelPath
}

func (c *NopClassifier) Classify(ctx context.Context, path string) (models.ClassificationResult, error) {
	return models.UnknownClassification(), nil
}

var _ Classifier = (*NopClassifier)(nil)
