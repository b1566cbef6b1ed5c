package models

import "errors"

var (
	ErrNotFound          = errors.New("document not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrExtraction        = errors.New("extraction failed")
	ErrModelLoad         = errors.New("model load failed")
)
