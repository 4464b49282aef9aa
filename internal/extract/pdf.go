package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dslipak/pdf"
	"github.com/gen2brain/go-fitz"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// PDFExtractor extracts text from PDFs: a baseline pass over the
// dslipak/pdf text layer, then a gen2brain/go-fitz rasterize-and-OCR
// fallback when that layer is sparse or noisy.
type PDFExtractor struct {
	ocr *OCRService
}

// NewPDFExtractor builds a PDFExtractor. ocr may be nil, in which case
// OCR fallback is skipped and pages with no extractable text stay
// empty.
func NewPDFExtractor(ocr *OCRService) *PDFExtractor {
	return &PDFExtractor{ocr: ocr}
}

func (e *PDFExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	baseline, pageCount, err := e.extractBaseline(path)
	if err != nil {
		return Result{}, err
	}

	if !NeedsOCR(baseline, opts.ForceOCR) || e.ocr == nil {
		return Result{
			Text:   baseline,
			Method: domain.MethodTextExtraction,
			Metadata: domain.Metadata{
				"page_count": pageCount,
				"ocr_used":   false,
			},
		}, nil
	}

	return e.extractWithOCR(ctx, path, baseline, pageCount, opts)
}

func (e *PDFExtractor) extractBaseline(path string) (string, int, error) {
	reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}

	var buf bytes.Buffer
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), numPages, nil
}

// extractWithOCR rasterizes every page at 300 DPI and recognizes it.
// Any page-level OCR failure is demoted to a warning and the whole
// document falls back to the baseline text-extraction result rather
// than a partially-OCR'd one.
func (e *PDFExtractor) extractWithOCR(ctx context.Context, path, baseline string, pageCount int, opts Options) (Result, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return e.fallbackToBaseline(baseline, pageCount, err), nil
	}
	defer doc.Close()

	var ocrBuf bytes.Buffer
	var confidences []float64

	total := doc.NumPage()
	for i := 0; i < total; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return e.fallbackToBaseline(baseline, pageCount, err), nil
		}
		res, err := e.ocr.RecognizeImage(ctx, img)
		if err != nil {
			return e.fallbackToBaseline(baseline, pageCount, err), nil
		}
		if i > 0 {
			ocrBuf.WriteString("\n\n")
		}
		ocrBuf.WriteString(res.Text)
		confidences = append(confidences, res.Confidence)
	}

	meta := domain.Metadata{
		"page_count": pageCount,
		"ocr_used":   true,
	}
	if len(confidences) > 0 {
		meta["ocr_confidence"] = mean(confidences)
	}

	return Result{Text: ocrBuf.String(), Method: domain.MethodOCR, Metadata: meta}, nil
}

// fallbackToBaseline implements "partial OCR failure is
// demoted to a warning": the whole document reverts to the baseline
// text-extraction result, with the failure recorded in metadata.
func (e *PDFExtractor) fallbackToBaseline(baseline string, pageCount int, cause error) Result {
	return Result{
		Text:   baseline,
		Method: domain.MethodTextExtraction,
		Metadata: domain.Metadata{
			"page_count": pageCount,
			"ocr_used":   false,
			"ocr_failed": true,
			"ocr_error":  cause.Error(),
		},
	}
}

// MethodFor reports OCR when OCR was forced and TEXT_EXTRACTION
// otherwise; it does not look at the text.
func MethodFor(text string, forcedOCR bool) domain.ProcessingMethod {
	if forcedOCR {
		return domain.MethodOCR
	}
	return domain.MethodTextExtraction
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
