package extractor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/feichai0017/doc-intelligence/internal/models"
)

// ImageNormalizer prepares phone and scanner captures for OCR.
type ImageNormalizer struct {
	MaxDimension int
	Contrast     float64
}

func NewImageNormalizer(maxDimension int) *ImageNormalizer {
	return &ImageNormalizer{
		MaxDimension: maxDimension,
		Contrast:     20,
	}
}

// Normalize re-encodes JPEG and PNG images as grayscale PNG with EXIF
// orientation applied, shrunk to fit MaxDimension. TIFF may hold several
// pages and is returned unchanged, as is anything else.
func (n *ImageNormalizer) Normalize(data []byte, name string) ([]byte, error) {
	format, err := imaging.FormatFromFilename(name)
	if err != nil || (format != imaging.JPEG && format != imaging.PNG) {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image %s: %v", models.ErrExtraction, name, err)
	}

	var out image.Image = img
	bounds := img.Bounds()
	if n.MaxDimension > 0 && (bounds.Dx() > n.MaxDimension || bounds.Dy() > n.MaxDimension) {
		out = imaging.Fit(out, n.MaxDimension, n.MaxDimension, imaging.Lanczos)
	}
	out = imaging.Grayscale(out)
	if n.Contrast != 0 {
		out = imaging.AdjustContrast(out, n.Contrast)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
