package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := NewLogger(
		WithLevel("debug"),
		WithEncoding("console"),
		WithOutputPaths([]string{path}),
	)
	require.NoError(t, err)

	log.Named("test").Info("hello", String("k", "v"))
	assert.FileExists(t, path)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(WithLevel("loud"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can't parse log level")
}

func TestTestLoggerRecordsChildEntries(t *testing.T) {
	log := NewTestLogger()

	child := log.Named("processor").With(String("path", "a.txt"))
	child.Info("processed")
	log.Error("boom", Error(assert.AnError))

	entries := log.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "processor", entries[0].Logger)
	assert.Len(t, entries[0].Fields, 1)
	assert.Equal(t, []string{"boom"}, log.Messages("ERROR"))

	log.Clear()
	assert.Empty(t, log.GetEntries())
}

func TestContextLoggerAddsRequestID(t *testing.T) {
	rec := NewTestLogger()
	cl := NewContextLogger(rec)

	cl.FromContext(context.Background()).Info("plain")
	cl.FromContext(WithRequestID(context.Background(), "req-1")).Info("tagged")

	entries := rec.GetEntries()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Fields)
	require.Len(t, entries[1].Fields, 1)
	assert.Equal(t, "request_id", entries[1].Fields[0].Key)
	assert.Equal(t, "req-1", entries[1].Fields[0].String)
}
