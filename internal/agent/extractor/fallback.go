package extractor

import (
	"context"
	"errors"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

// FallbackExtractor tries each extractor in order until one produces text.
// Only extraction failures move on to the next one; a missing document or a
// cancelled context stops the chain.
type FallbackExtractor struct {
	chain  []TextExtractor
	logger logger.Logger
}

func NewFallbackExtractor(log logger.Logger, chain ...TextExtractor) *FallbackExtractor {
	return &FallbackExtractor{chain: chain, logger: log}
}

func (f *FallbackExtractor) Extract(ctx context.Context, path string) (string, error) {
	err := models.ErrUnsupportedFormat
	for i, e := range f.chain {
		var text string
		text, err = e.Extract(ctx, path)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, models.ErrExtraction) || ctx.Err() != nil {
			return "", err
		}
		if i < len(f.chain)-1 {
			f.logger.Warn("Text extraction failed, trying next extractor",
				logger.String("path", path),
				logger.Int("attempt", i+1),
				logger.Error(err),
			)
		}
	}
	return "", err
}

var _ TextExtractor = (*FallbackExtractor)(nil)
