package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/storage"
	"github.com/feichai0017/doc-intelligence/pkg/storage/local"
)

// Locator answers whether a document reference exists.
type Locator interface {
	Exists(ctx context.Context, location string) (bool, error)
}

// Processor validates a document reference and describes it.
type Processor struct {
	config  models.Options
	locator Locator
	logger  logger.Logger
}

type Option func(*Processor)

// WithConfig stores opts verbatim.
func WithConfig(opts models.Options) Option {
	return func(p *Processor) {
		if opts != nil {
			p.config = opts
		}
	}
}

func WithLocator(l Locator) Option {
	return func(p *Processor) {
		p.locator = l
	}
}

func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// NewProcessor builds a processor; without options it checks the local filesystem.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		config: models.Options{},
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.locator == nil {
		p.locator = storage.NewResolver(local.NewLocalStorage("", p.logger))
	}
	return p
}

// Config returns the options the processor was built with.
func (p *Processor) Config() models.Options {
	return p.config
}

// Process checks that path exists and returns its processing envelope.
func (p *Processor) Process(ctx context.Context, path string) (*models.ProcessingResult, error) {
	resolved := resolvePath(path)

	exists, err := p.locator.Exists(ctx, resolved)
	if errors.Is(err, storage.ErrNoBackend) || errors.Is(err, storage.ErrInvalidLocation) {
		p.logger.Warn("Document location not routable",
			logger.String("path", path),
			logger.Error(err),
		)
		return nil, newError("process", path, fmt.Errorf("%w: %v", ErrNotFound, err))
	}
	if err != nil {
		p.logger.Error("Failed to resolve document",
			logger.String("path", path),
			logger.Error(err),
		)
		return nil, newError("process", path, fmt.Errorf("failed to resolve document: %w", err))
	}
	if !exists {
		p.logger.Warn("Document not found", logger.String("path", path))
		return nil, newError("process", path, ErrNotFound)
	}

	result := &models.ProcessingResult{
		Status: models.StatusProcessed,
		Path:   resolved,
		Type:   models.NewReference(resolved).Suffix(),
		Data:   map[string]interface{}{},
	}

	p.logger.Debug("Document processed",
		logger.String("path", result.Path),
		logger.String("type", result.Type),
	)
	return result, nil
}

// resolvePath normalizes local paths the way pathlib does: empty and "."
// segments and repeated separators go, ".." stays. Storage URIs pass through.
func resolvePath(path string) string {
	loc, err := storage.ParseLocation(path)
	if err != nil || loc.Scheme != storage.StorageTypeLocal || loc.Key != path {
		return path
	}

	slashed := filepath.ToSlash(path)
	parts := make([]string, 0, strings.Count(slashed, "/")+1)
	for _, seg := range strings.Split(slashed, "/") {
		if seg != "" && seg != "." {
			parts = append(parts, seg)
		}
	}

	joined := strings.Join(parts, "/")
	switch {
	case strings.HasPrefix(slashed, "/"):
		joined = "/" + joined
	case joined == "":
		joined = "."
	}
	return filepath.FromSlash(joined)
}
