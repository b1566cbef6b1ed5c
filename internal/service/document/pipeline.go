package document

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/feichai0017/doc-intelligence/internal/agent/classifier"
	"github.com/feichai0017/doc-intelligence/internal/agent/extractor"
	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

// Pipeline chains processing, text and entity extraction, and classification.
// Process on its own never runs the later stages.
type Pipeline struct {
	processor  *Processor
	text       extractor.TextExtractor
	entities   extractor.EntityExtractor
	classifier classifier.Classifier
	logger     logger.Logger
}

type PipelineOption func(*Pipeline)

func WithTextExtractor(e extractor.TextExtractor) PipelineOption {
	return func(p *Pipeline) { p.text = e }
}

func WithEntityExtractor(e extractor.EntityExtractor) PipelineOption {
	return func(p *Pipeline) { p.entities = e }
}

func WithClassifier(c classifier.Classifier) PipelineOption {
	return func(p *Pipeline) { p.classifier = c }
}

func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline defaults every stage to its no-op implementation.
func NewPipeline(processor *Processor, opts ...PipelineOption) *Pipeline {
	if processor == nil {
		processor = NewProcessor()
	}
	p := &Pipeline{
		processor:  processor,
		text:       extractor.NewNopTextExtractor(),
		entities:   extractor.NewNopEntityExtractor(),
		classifier: classifier.NewNopClassifier(""),
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Processor() *Processor {
	return p.processor
}

// Process runs only the processor stage.
func (p *Pipeline) Process(ctx context.Context, path string) (*models.ProcessingResult, error) {
	return p.processor.Process(ctx, path)
}

// Analyze runs every stage on path. Formats without an extractor, and
// documents whose extraction fails, yield empty text so classification can
// still use the file name.
func (p *Pipeline) Analyze(ctx context.Context, path string) (*models.Analysis, error) {
	result, err := p.processor.Process(ctx, path)
	if err != nil {
		return nil, err
	}

	text, err := p.text.Extract(ctx, result.Path)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnsupportedFormat):
		p.logger.Info("No text extractor for document",
			logger.String("path", result.Path),
			logger.String("type", result.Type),
		)
		text = ""
	case errors.Is(err, ErrExtraction):
		p.logger.Warn("Text extraction failed, continuing without text",
			logger.String("path", result.Path),
			logger.Error(err),
		)
		text = ""
	default:
		return nil, newError("extract", result.Path, err)
	}

	entities, err := p.entities.Extract(ctx, text)
	if err != nil {
		return nil, newError("entities", result.Path, err)
	}

	classification, err := p.classifyText(ctx, result.Path, text)
	if err != nil {
		return nil, newError("classify", result.Path, err)
	}

	p.logger.Info("Document analyzed",
		logger.String("path", result.Path),
		logger.String("category", classification.Category),
		logger.Float64("confidence", classification.Confidence),
		logger.Int("entities", len(entities)),
	)

	return &models.Analysis{
		Result:         result,
		Text:           text,
		Entities:       entities,
		Classification: classification,
		AnalyzedAt:     time.Now().UTC(),
	}, nil
}

// Classify checks that path exists, then classifies it.
func (p *Pipeline) Classify(ctx context.Context, path string) (models.ClassificationResult, error) {
	result, err := p.processor.Process(ctx, path)
	if err != nil {
		return models.ClassificationResult{}, err
	}
	classification, err := p.classifier.Classify(ctx, result.Path)
	if err != nil {
		return models.ClassificationResult{}, newError("classify", result.Path, err)
	}
	return classification, nil
}

// classifyText hands the extracted text to classifiers that accept it, so the
// document is read once per analysis.
func (p *Pipeline) classifyText(ctx context.Context, path, text string) (models.ClassificationResult, error) {
	if tc, ok := p.classifier.(classifier.TextClassifier); ok {
		return tc.ClassifyText(ctx, path, text)
	}
	return p.classifier.Classify(ctx, path)
}

// Close releases stages that hold resources, such as the Ollama client pool.
func (p *Pipeline) Close() error {
	var errs []error
	for _, stage := range []interface{}{p.text, p.entities, p.classifier} {
		if c, ok := stage.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Entities runs entity extraction on text that is already in hand.
func (p *Pipeline) Entities(ctx context.Context, text string) ([]models.EntityRecord, error) {
	return p.entities.Extract(ctx, text)
}
