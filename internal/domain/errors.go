package domain

import "errors"

// Sentinel errors returned (wrapped with fmt.Errorf("%w: ...")) from every
// layer of the pipeline. Callers use errors.Is against these.
var (
	ErrNotFound           = errors.New("not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrContextNotFound    = errors.New("context not found")
	ErrContextExists      = errors.New("context already exists")
	ErrReservedContext    = errors.New("context name is reserved")
	ErrInvalidContextName = errors.New("invalid context name")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrFileTooLarge       = errors.New("file exceeds maximum size")
	ErrEmptyFile          = errors.New("file is empty")
	ErrChunkingFailed     = errors.New("text chunking failed")
	ErrEmbeddingFailed    = errors.New("embedding generation failed")
	ErrExtractionFailed   = errors.New("text extraction failed")
	ErrOCRFailed          = errors.New("ocr recognition failed")
	ErrVectorStoreFailed  = errors.New("vector store operation failed")
	ErrConfigurationError = errors.New("configuration error")
	ErrTaskNotFound       = errors.New("task not found")
	ErrConfirmationNeeded = errors.New("confirmation_required")
)
