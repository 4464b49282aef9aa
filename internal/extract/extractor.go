// Package extract dispatches a file path to the format-specific
// extractor for its extension and returns best-effort Unicode text plus
// a metadata map. Extractors are stateless and
// concurrency-safe; the PDF extractor additionally owns the OCR
// fallback decision.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// Options configures a single extraction call.
type Options struct {
	ForceOCR bool
	Language string
}

// Result is what every extractor returns: best-effort text, a metadata
// bag, and the method used to obtain it.
type Result struct {
	Text     string
	Metadata domain.Metadata
	Method   domain.ProcessingMethod
}

// Extractor turns a file on disk into text + metadata.
type Extractor interface {
	Process(ctx context.Context, path string, opts Options) (Result, error)
}

// extensionFormats maps every supported extension to its
// format tag.
var extensionFormats = map[string]domain.Format{
	".pdf":  domain.FormatPDF,
	".docx": domain.FormatDOCX,
	".pptx": domain.FormatPPTX,
	".xlsx": domain.FormatXLSX,
	".html": domain.FormatHTML,
	".htm":  domain.FormatHTML,
	".jpg":  domain.FormatImage,
	".jpeg": domain.FormatImage,
	".png":  domain.FormatImage,
	".svg":  domain.FormatImage,
}

// FormatForExtension returns the format tag for path's extension, or an
// error if the extension is unsupported.
func FormatForExtension(path string) (domain.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensionFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Registry dispatches to the extractor registered for a format.
type Registry struct {
	extractors map[domain.Format]Extractor
}

// NewRegistry builds the default extractor registry: one extractor
// instance per supported format, all stateless and safe to share.
func NewRegistry(ocr *OCRService) *Registry {
	return &Registry{
		extractors: map[domain.Format]Extractor{
			domain.FormatPDF:   NewPDFExtractor(ocr),
			domain.FormatDOCX:  NewDOCXExtractor(),
			domain.FormatPPTX:  NewPPTXExtractor(),
			domain.FormatXLSX:  NewXLSXExtractor(),
			domain.FormatHTML:  NewHTMLExtractor(),
			domain.FormatImage: NewImageExtractor().WithOCR(ocr),
		},
	}
}

// Process dispatches path to the extractor for its format.
func (r *Registry) Process(ctx context.Context, path string, opts Options) (Result, error) {
	format, err := FormatForExtension(path)
	if err != nil {
		return Result{}, err
	}
	ex, ok := r.extractors[format]
	if !ok {
		return Result{}, fmt.Errorf("%w: no extractor registered for %q", domain.ErrUnsupportedFormat, format)
	}
	res, err := ex.Process(ctx, path, opts)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if res.Metadata == nil {
		res.Metadata = domain.Metadata{}
	}
	res.Metadata["format"] = string(format)
	return res, nil
}
