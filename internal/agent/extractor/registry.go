package extractor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

var extToMIME = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// MIMEForExtension maps a suffix such as ".PDF" to its MIME type.
func MIMEForExtension(ext string) (string, bool) {
	mime, ok := extToMIME[strings.ToLower(ext)]
	return mime, ok
}

// Registry dispatches extraction by file extension.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]TextExtractor
	logger     logger.Logger
}

func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		extractors: make(map[string]TextExtractor),
		logger:     log,
	}
}

// Register binds an extractor to one or more MIME types.
func (r *Registry) Register(e TextExtractor, mimeTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mimeTypes {
		r.extractors[m] = e
	}
}

// For returns the extractor serving path's extension.
func (r *Registry) For(path string) (TextExtractor, error) {
	ext := models.NewReference(path).Suffix()
	mimeType, ok := MIMEForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}

	r.mu.RLock()
	e, ok := r.extractors[mimeType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %s", models.ErrUnsupportedFormat, mimeType)
	}
	return e, nil
}

// Extract implements TextExtractor.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	e, err := r.For(path)
	if err != nil {
		r.logger.Warn("Unsupported document type", logger.String("path", path))
		return "", err
	}
	return e.Extract(ctx, path)
}

var _ TextExtractor = (*Registry)(nil)
