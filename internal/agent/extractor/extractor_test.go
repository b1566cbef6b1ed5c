package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/storage"
)

type memOpener map[string][]byte

func (m memOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	data, ok := m[location]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, location)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// buildPDF writes an uncompressed PDF with one text line per page.
func buildPDF(pages ...string) []byte {
	kids := make([]string, len(pages))
	objs := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	for i, text := range pages {
		pageObj := len(objs) + 1
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)
		content := fmt.Sprintf("BT 72 712 Td (%s) Tj ET", text)
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R >>", pageObj+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestNopTextExtractor(t *testing.T) {
	e := NewNopTextExtractor()
	for _, p := range []string{"a.pdf", "/does/not/exist.png", ""} {
		text, err := e.Extract(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "", text)
	}
}

func TestNopEntityExtractor(t *testing.T) {
	e := NewNopEntityExtractor()
	for _, text := range []string{"", "John Smith visited Paris on 2024-01-01"} {
		entities, err := e.Extract(context.Background(), text)
		require.NoError(t, err)
		assert.NotNil(t, entities)
		assert.Empty(t, entities)
	}
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	opener := memOpener{"notes.TXT": []byte("hello")}
	r := NewRegistry(logger.NewTestLogger())
	r.Register(NewPlainTextExtractor(opener), PlainTextTypes...)

	text, err := r.Extract(context.Background(), "notes.TXT")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = r.For("a.md")
	assert.NoError(t, err)
	_, err = r.For("scan.png")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestRegistryRejectsUnknownFormats(t *testing.T) {
	r := NewRegistry(logger.NewTestLogger())
	r.Register(NewNopTextExtractor(), "application/pdf")

	_, err := r.Extract(context.Background(), "archive.zip")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	_, err = r.Extract(context.Background(), "README")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	// Known extension without an extractor.
	_, err = r.Extract(context.Background(), "photo.jpg")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestPlainTextExtractor(t *testing.T) {
	opener := memOpener{
		"a.txt":   []byte("line one\nline two"),
		"bad.txt": {0xff, 0xfe, 0xfd},
	}
	e := NewPlainTextExtractor(opener)

	text, err := e.Extract(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	_, err = e.Extract(context.Background(), "bad.txt")
	assert.ErrorIs(t, err, models.ErrExtraction)

	_, err = e.Extract(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestPDFTextExtractorKeepsPageOrder(t *testing.T) {
	pages := []string{"first page", "second page", "third page", "fourth page", "fifth page", "sixth page"}
	opener := memOpener{"report.pdf": buildPDF(pages...)}
	e := NewPDFTextExtractor(opener, logger.NewTestLogger())

	got, err := e.ExtractPages(context.Background(), opener["report.pdf"])
	require.NoError(t, err)
	require.Len(t, got, len(pages))
	for i, want := range pages {
		assert.Contains(t, got[i], want)
	}

	text, err := e.Extract(context.Background(), "report.pdf")
	require.NoError(t, err)
	assert.Less(t, strings.Index(text, "first page"), strings.Index(text, "sixth page"))
}

func TestPDFTextExtractorRejectsGarbage(t *testing.T) {
	opener := memOpener{"broken.pdf": []byte("not a pdf at all")}
	e := NewPDFTextExtractor(opener, logger.NewTestLogger())

	_, err := e.Extract(context.Background(), "broken.pdf")
	assert.ErrorIs(t, err, models.ErrExtraction)
}
