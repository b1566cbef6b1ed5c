package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceSuffix(t *testing.T) {
	cases := map[string]string{
		"a.txt":                 ".txt",
		"dir/report.PDF":        ".PDF",
		"archive.tar.gz":        ".gz",
		".env":                  "",
		"README":                "",
		"trailing.":             "",
		"dir.d/noext":           "",
		"s3://bucket/key/x.png": ".png",
		`C:\docs\scan.tiff`:     ".tiff",
	}

	for in, want := range cases {
		assert.Equal(t, want, NewReference(in).Suffix(), in)
	}
}

func TestProcessingResultJSON(t *testing.T) {
	res := ProcessingResult{
		Status: StatusProcessed,
		Path:   "a.txt",
		Type:   ".txt",
		Data:   map[string]interface{}{},
	}

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"processed","path":"a.txt","type":".txt","data":{}}`, string(raw))
}

func TestUnknownClassification(t *testing.T) {
	c := UnknownClassification()
	assert.Equal(t, "unknown", c.Category)
	assert.Equal(t, 0.0, c.Confidence)
}
