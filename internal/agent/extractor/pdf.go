package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

const maxPageWorkers = 4

// PDFTextExtractor reads the text layer of a PDF, several pages at a time.
type PDFTextExtractor struct {
	opener Opener
	logger logger.Logger
}

func NewPDFTextExtractor(opener Opener, log logger.Logger) *PDFTextExtractor {
	return &PDFTextExtractor{opener: opener, logger: log}
}

func (e *PDFTextExtractor) Extract(ctx context.Context, path string) (string, error) {
	rc, err := e.opener.Open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", models.ErrExtraction, path, err)
	}

	pages, err := e.ExtractPages(ctx, content)
	if err != nil {
		e.logger.Error("Failed to extract PDF text",
			logger.String("path", path),
			logger.Error(err),
		)
		return "", err
	}

	e.logger.Debug("Extracted PDF text",
		logger.String("path", path),
		logger.Int("pages", len(pages)),
	)
	return strings.Join(pages, "\n"), nil
}

// ExtractPages returns the text of each page, in page order.
func (e *PDFTextExtractor) ExtractPages(ctx context.Context, content []byte) ([]string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pdf: %v", models.ErrExtraction, err)
	}

	numPages := pdfReader.NumPage()
	pages := make([]string, numPages)

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, maxPageWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("%w: page %d: %v", models.ErrExtraction, pageNum, err)
			}
			pages[pageNum-1] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
