// OCR decision and execution: Tesseract via otiai10/gosseract/v2,
// bounded by a panjf2000/ants/v2 worker pool so concurrent documents
// share a fixed recognition budget.
package extract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// minTextLength and minAlnumRatio are the OCR trigger thresholds.
const (
	minTextLength = 100
	minAlnumRatio = 0.7
)

// NeedsOCR reports whether text extracted without OCR is too sparse or
// too noisy to trust: force it, too short, or too low an
// alphanumeric-or-whitespace ratio over the whole text.
func NeedsOCR(text string, force bool) bool {
	if force {
		return true
	}
	if len(strings.TrimSpace(text)) < minTextLength {
		return true
	}
	return alnumRatio(text) < minAlnumRatio
}

// alnumRatio is the share of runes that are letters, digits, or
// whitespace. Whitespace counts toward the numerator: prose full of
// spaces is fine, text dominated by symbols is OCR noise.
func alnumRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var ok, total int
	for _, r := range s {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			ok++
		}
	}
	return float64(ok) / float64(total)
}

// OCRResult is one page/image's OCR outcome.
type OCRResult struct {
	Text       string
	Confidence float64
}

// OCRService runs Tesseract over images via a bounded worker pool, so a
// burst of scanned pages never spawns more concurrent gosseract clients
// than configured.
type OCRService struct {
	language string
	pool     *ants.Pool
}

// NewOCRService builds an OCRService with poolSize concurrent workers
// bounding OCR recognition calls.
func NewOCRService(language string, poolSize int) (*OCRService, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: creating OCR worker pool: %v", domain.ErrOCRFailed, err)
	}
	return &OCRService{language: language, pool: pool}, nil
}

// Close releases the underlying worker pool.
func (s *OCRService) Close() {
	s.pool.Release()
}

// RecognizeImage runs OCR over an already-rasterized image on the
// worker pool and blocks until the result is ready.
func (s *OCRService) RecognizeImage(ctx context.Context, img image.Image) (OCRResult, error) {
	tmp, err := os.CreateTemp("", "knowledge-ocr-*.png")
	if err != nil {
		return OCRResult{}, fmt.Errorf("%w: creating OCR temp file: %v", domain.ErrOCRFailed, err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return OCRResult{}, fmt.Errorf("%w: encoding page image: %v", domain.ErrOCRFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return OCRResult{}, fmt.Errorf("%w: %v", domain.ErrOCRFailed, err)
	}
	return s.RecognizeFile(ctx, path)
}

// RecognizeFile runs OCR over an image file on disk, submitting the
// work to the bounded pool and waiting for it to complete.
func (s *OCRService) RecognizeFile(ctx context.Context, path string) (OCRResult, error) {
	type outcome struct {
		res OCRResult
		err error
	}
	done := make(chan outcome, 1)

	task := func() {
		client := gosseract.NewClient()
		defer client.Close()

		lang := s.language
		if lang == "" {
			lang = "eng"
		}
		if err := client.SetLanguage(lang); err != nil {
			done <- outcome{err: fmt.Errorf("%w: setting OCR language: %v", domain.ErrOCRFailed, err)}
			return
		}
		if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
			done <- outcome{err: fmt.Errorf("%w: setting OCR page segmentation mode: %v", domain.ErrOCRFailed, err)}
			return
		}
		if err := client.SetImage(path); err != nil {
			done <- outcome{err: fmt.Errorf("%w: loading OCR image: %v", domain.ErrOCRFailed, err)}
			return
		}

		text, err := client.Text()
		if err != nil {
			done <- outcome{err: fmt.Errorf("%w: running OCR: %v", domain.ErrOCRFailed, err)}
			return
		}
		confidence := 0.0
		if meanConf, err := client.GetMeanConfidence(); err == nil {
			confidence = float64(meanConf) / 100.0
		}
		done <- outcome{res: OCRResult{Text: text, Confidence: confidence}}
	}

	if err := s.pool.Submit(task); err != nil {
		return OCRResult{}, fmt.Errorf("%w: submitting OCR job: %v", domain.ErrOCRFailed, err)
	}

	select {
	case <-ctx.Done():
		return OCRResult{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return OCRResult{}, o.err
		}
		return o.res, nil
	}
}
