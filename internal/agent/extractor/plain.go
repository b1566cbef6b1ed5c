package extractor

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

// MIME types served by PlainTextExtractor.
var PlainTextTypes = []string{"text/plain", "text/markdown", "text/csv", "application/json"}

// PlainTextExtractor returns a text file's content as-is.
type PlainTextExtractor struct {
	opener Opener
}

func NewPlainTextExtractor(opener Opener) *PlainTextExtractor {
	return &PlainTextExtractor{opener: opener}
}

func (e *PlainTextExtractor) Extract(ctx context.Context, path string) (string, error) {
	rc, err := e.opener.Open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", models.ErrExtraction, path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", models.ErrExtraction, path)
	}
	return string(data), nil
}
