package models

import (
	"path"
	"strings"
	"time"
)

// ProcessingStatus describes a document or task state.
type ProcessingStatus string

const (
	StatusProcessed ProcessingStatus = "processed"

	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
	StatusCancelled ProcessingStatus = "cancelled"
)

// Options is the processor configuration, passed through untouched.
type Options map[string]interface{}

// Reference identifies a source document: a filesystem path or a storage URI.
type Reference struct {
	Location string `json:"location"`
}

// NewReference wraps a location.
func NewReference(location string) Reference {
	return Reference{Location: location}
}

func (r Reference) String() string {
	return r.Location
}

// Suffix returns the extension of the final path element, dot included.
// Names without an inner dot (".env", "README", "a.") have no suffix.
func (r Reference) Suffix() string {
	name := path.Base(strings.ReplaceAll(r.Location, "\\", "/"))
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// ProcessingResult is the envelope returned for a processed document.
type ProcessingResult struct {
	Status ProcessingStatus       `json:"status"`
	Path   string                 `json:"path"`
	Type   string                 `json:"type"`
	Data   map[string]interface{} `json:"data"`
}

// EntityRecord describes one named entity found in text.
type EntityRecord map[string]interface{}

const (
	// CategoryUnknown is reported when no classification is available.
	CategoryUnknown = "unknown"
)

// ClassificationResult pairs a category with a confidence in [0,1].
type ClassificationResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
}

// UnknownClassification is the placeholder result.
func UnknownClassification() ClassificationResult {
	return ClassificationResult{Category: CategoryUnknown, Confidence: 0.0}
}

// Analysis bundles every stage of the opt-in pipeline.
type Analysis struct {
	Result         *ProcessingResult    `json:"result"`
	Text           string               `json:"text"`
	Entities       []EntityRecord       `json:"entities"`
	Classification ClassificationResult `json:"classification"`
	AnalyzedAt     time.Time            `json:"analyzedAt"`
}

// ProcessingTask tracks an asynchronous analysis.
type ProcessingTask struct {
	ID        string            `json:"id"`
	Status    ProcessingStatus  `json:"status"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Progress  float64           `json:"progress"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	Analysis  *Analysis         `json:"analysis,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt,omitempty"`
}
