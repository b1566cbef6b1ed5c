package extractor

import (
	"context"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

// EntityExtractor finds named entities in text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]models.EntityRecord, error)
}

// NopEntityExtractor finds nothing.
type NopEntityExtractor struct{}

func NewNopEntityExtractor() *NopEntityExtractor {
	return &NopEntityExtractor{}
}

// Extract returns an empty, non-nil slice.
func (NopEntityExtractor) Extract(ctx context.Context, text string) ([]models.EntityRecord, error) {
	return []models.EntityRecord{}, nil
}

var _ EntityExtractor = (*NopEntityExtractor)(nil)
