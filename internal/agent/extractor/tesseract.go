//go:build tesseract

package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

// TesseractAvailable reports whether local OCR was compiled in.
const TesseractAvailable = true

// TesseractExtractor runs images through a local tesseract install.
type TesseractExtractor struct {
	opener    Opener
	languages []string
	logger    logger.Logger
}

func NewTesseractExtractor(opener Opener, languages []string, log logger.Logger) (TextExtractor, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractExtractor{opener: opener, languages: languages, logger: log}, nil
}

func (e *TesseractExtractor) Extract(ctx context.Context, path string) (string, error) {
	rc, err := e.opener.Open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", models.ErrExtraction, path, err)
	}

	// A client is not safe for concurrent use.
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("%w: failed to set language: %v", models.ErrExtraction, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("%w: failed to set page segmentation: %v", models.ErrExtraction, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: failed to load image: %v", models.ErrExtraction, err)
	}

	text, err := client.Text()
	if err != nil {
		e.logger.Error("Tesseract OCR failed",
			logger.String("path", path),
			logger.Error(err),
		)
		return "", fmt.Errorf("%w: ocr failed: %v", models.ErrExtraction, err)
	}
	return strings.TrimSpace(text), nil
}
