package extractor

import (
	"context"
	"io"
)

// TextExtractor pulls plain text out of a document.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Opener reads a document by reference. storage.Resolver satisfies it.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// NopTextExtractor returns no text for any input.
type NopTextExtractor struct{}

func NewNopTextExtractor() *NopTextExtractor {
	return &NopTextExtractor{}
}

// Extract always returns "", even for paths that do not exist.
func (NopTextExtractor) Extract(ctx context.Context, path string) (string, error) {
	return "", nil
}

var _ TextExtractor = (*NopTextExtractor)(nil)
