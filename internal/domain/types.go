// Package domain holds the data model shared by every layer of the
// ingestion-and-retrieval pipeline: documents, contexts, embedding
// records, processing tasks and HTTP sessions.
package domain

import (
	"regexp"
	"time"
)

// Format is one of the supported ingestible file formats.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatDOCX  Format = "docx"
	FormatPPTX  Format = "pptx"
	FormatXLSX  Format = "xlsx"
	FormatHTML  Format = "html"
	FormatImage Format = "image"
)

// ProcessingStatus tracks a Document through the ingestion pipeline.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
	StatusPartial    ProcessingStatus = "PARTIAL"
)

// ProcessingMethod records how a document's text was obtained.
type ProcessingMethod string

const (
	MethodTextExtraction ProcessingMethod = "TEXT_EXTRACTION"
	MethodOCR            ProcessingMethod = "OCR"
	MethodHybrid         ProcessingMethod = "HYBRID"
	MethodImageAnalysis  ProcessingMethod = "IMAGE_ANALYSIS"
)

// TaskStatus tracks an async ProcessingTask.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "QUEUED"
	TaskRunning   TaskStatus = "RUNNING"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
	TaskCancelled TaskStatus = "CANCELLED"
)

// DefaultContext is the one context that always exists and can never be
// created or deleted through the API.
const DefaultContext = "default"

// contextNamePattern is the validation regex for context names.
var contextNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidContextName reports whether name matches the allowed context name
// grammar. It does not check reservation or existence.
func ValidContextName(name string) bool {
	return contextNamePattern.MatchString(name)
}

// Metadata is an open string-keyed bag of JSON-compatible values attached
// to documents and chunks. Format-specific extractors populate whatever
// fields make sense for their format (author, page_count, ocr_confidence,
// ...); it is deliberately untyped.
type Metadata map[string]interface{}

// Document represents one ingested file, deduplicated by ContentHash.
type Document struct {
	ID                string           `json:"id"`
	Filename          string           `json:"filename"`
	SourcePath        string           `json:"source_path"`
	ContentHash       string           `json:"content_hash"`
	Format            Format           `json:"format"`
	SizeBytes         int64            `json:"size_bytes"`
	DateAdded         time.Time        `json:"date_added"`
	DateModified      time.Time        `json:"date_modified"`
	ProcessingStatus  ProcessingStatus `json:"processing_status"`
	ProcessingMethod  ProcessingMethod `json:"processing_method,omitempty"`
	ChunkCount        int              `json:"chunk_count"`
	Contexts          []string         `json:"contexts"`
	Metadata          Metadata         `json:"metadata,omitempty"`
	ErrorMessage      string           `json:"error_message,omitempty"`
}

// Context is a named, isolated document collection.
type Context struct {
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DocumentCount int       `json:"document_count"`
	Metadata      Metadata  `json:"metadata,omitempty"`
}

// EmbeddingRecord is one chunk as stored in a context's collection.
type EmbeddingRecord struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"-"`
	Metadata Metadata  `json:"metadata"`
}

// ProcessingTask tracks an asynchronous ingestion job.
type ProcessingTask struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"document_id"`
	Status         TaskStatus `json:"status"`
	Progress       float64    `json:"progress"`
	CurrentStep    string     `json:"current_step"`
	TotalSteps     int        `json:"total_steps"`
	CompletedSteps int        `json:"completed_steps"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Session is an HTTP-transport client identity, established at
// `initialize` time and looked up for every subsequent request.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SearchResult is one ranked passage returned from a search.
type SearchResult struct {
	ChunkID   string   `json:"chunk_id"`
	ChunkText string   `json:"chunk_text"`
	Relevance float64  `json:"relevance_score"`
	Metadata  Metadata `json:"metadata"`
}
