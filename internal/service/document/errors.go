package document

import (
	"fmt"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

var (
	// ErrNotFound: the reference does not resolve to an existing document.
	ErrNotFound = models.ErrNotFound

	// Reserved for real extraction and classification backends.
	ErrUnsupportedFormat = models.ErrUnsupportedFormat
	ErrExtraction        = models.ErrExtraction
	ErrModelLoad         = models.ErrModelLoad
)

// DocumentError records the operation and document behind a failure.
type DocumentError struct {
	Op   string
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) error {
	return &DocumentError{Op: op, Path: path, Err: err}
}
