package document

import (
	"context"
	"fmt"

	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/agent/classifier"
	"github.com/feichai0017/doc-intelligence/internal/agent/extractor"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/storage"
	"github.com/feichai0017/doc-intelligence/pkg/storage/local"
	"github.com/feichai0017/doc-intelligence/pkg/storage/minio"
	"github.com/feichai0017/doc-intelligence/pkg/storage/s3"
)

// Pipeline modes selected by the PIPELINE setting.
const (
	ModeNop    = "nop"
	ModeRules  = "rules"
	ModeOllama = "ollama"
)

// NewResolver mounts local storage plus any configured S3 and MinIO buckets.
func NewResolver(ctx context.Context, appConfig *cfg.AppConfig, log logger.Logger) (*storage.Resolver, error) {
	resolver := storage.NewResolver(local.NewLocalStorage(appConfig.StorageRoot, log.Named("local")))

	if s3Config := cfg.GetS3Config(); s3Config.Enabled() {
		s3Storage, err := s3.NewS3Storage(ctx, s3Config, log.Named("s3"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		resolver.Register(storage.StorageTypeS3, s3Storage.Bucket(), s3Storage)
	}

	if minioConfig := cfg.GetMinioConfig(); minioConfig.Enabled() {
		minioStorage, err := minio.NewMinioStorage(ctx, minioConfig, log.Named("minio"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MinIO storage: %w", err)
		}
		resolver.Register(storage.StorageTypeMinio, minioStorage.Bucket(), minioStorage)
	}

	return resolver, nil
}

// NewTextRegistry registers the plain-text and PDF extractors. Images go to
// Textract when AWS is configured and to local tesseract when it is compiled
// in; with both, tesseract takes over whenever Textract fails.
func NewTextRegistry(ctx context.Context, opener extractor.Opener, log logger.Logger) (*extractor.Registry, error) {
	registry := extractor.NewRegistry(log.Named("extractor"))
	registry.Register(extractor.NewPlainTextExtractor(opener), extractor.PlainTextTypes...)
	registry.Register(extractor.NewPDFTextExtractor(opener, log.Named("pdf")), "application/pdf")

	var ocr []extractor.TextExtractor
	if textractConfig := cfg.GetTextractConfig(); textractConfig.Enabled() {
		textract, err := extractor.NewTextractExtractor(ctx, textractConfig, opener, log.Named("textract"))
		if err != nil {
			return nil, fmt.Errorf("failed to create textract extractor: %w", err)
		}
		ocr = append(ocr, textract)
	}
	if extractor.TesseractAvailable {
		tesseract, err := extractor.NewTesseractExtractor(opener, cfg.GetTesseractConfig().Languages, log.Named("tesseract"))
		if err != nil {
			return nil, fmt.Errorf("failed to create tesseract extractor: %w", err)
		}
		ocr = append(ocr, tesseract)
	}

	switch len(ocr) {
	case 0:
		log.Info("No OCR configured, images will be classified by file name only")
	case 1:
		registry.Register(ocr[0], extractor.ImageTypes...)
	default:
		registry.Register(extractor.NewFallbackExtractor(log.Named("ocr"), ocr...), extractor.ImageTypes...)
	}

	return registry, nil
}

// Build wires a pipeline from configuration. In nop mode every stage after
// Process is a no-op; "rules" and "ollama" use the real extractors.
func Build(ctx context.Context, appConfig *cfg.AppConfig, log logger.Logger) (*Pipeline, error) {
	options, err := cfg.LoadProcessorOptions(appConfig.ProcessorConfig)
	if err != nil {
		return nil, err
	}

	resolver, err := NewResolver(ctx, appConfig, log)
	if err != nil {
		return nil, err
	}

	processor := NewProcessor(
		WithConfig(options),
		WithLocator(resolver),
		WithLogger(log.Named("processor")),
	)

	opts := []PipelineOption{WithPipelineLogger(log.Named("pipeline"))}
	switch appConfig.Pipeline {
	case ModeNop, "":
	case ModeRules, ModeOllama:
		registry, err := NewTextRegistry(ctx, resolver, log)
		if err != nil {
			return nil, err
		}
		var clf classifier.Classifier = classifier.NewKeywordClassifier(registry, log.Named("classifier"))
		if appConfig.Pipeline == ModeOllama {
			clf = classifier.NewOllamaClassifier(cfg.GetOllamaConfig(), registry, log.Named("classifier"))
		}
		opts = append(opts,
			WithTextExtractor(registry),
			WithEntityExtractor(extractor.NewPatternEntityExtractor()),
			WithClassifier(clf),
		)
	default:
		return nil, fmt.Errorf("unknown pipeline mode %q", appConfig.Pipeline)
	}

	log.Info("Document pipeline ready",
		logger.String("mode", appConfig.Pipeline),
		logger.Int("options", len(options)),
	)
	return NewPipeline(processor, opts...), nil
}
