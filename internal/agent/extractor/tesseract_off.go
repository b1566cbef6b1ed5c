//go:build !tesseract

package extractor

import (
	"errors"

	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

const TesseractAvailable = false

var errTesseractDisabled = errors.New("tesseract support not compiled in; build with -tags tesseract")

func NewTesseractExtractor(opener Opener, languages []string, log logger.Logger) (TextExtractor, error) {
	return nil, errTesseractDisabled
}
