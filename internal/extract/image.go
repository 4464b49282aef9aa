package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// ImageExtractor handles raster and vector images. It never attempts
// OCR itself — the smart OCR decision belongs to the
// PDF extractor alone. It always returns empty text and method
// IMAGE_ANALYSIS, carrying dimensions/mode metadata (decoded via
// disintegration/imaging) for rasters and width/height/viewBox for
// SVGs. The downstream short-circuit (fewer than 10 non-whitespace
// characters) then marks the document COMPLETED with zero chunks.
type ImageExtractor struct{}

func NewImageExtractor() *ImageExtractor { return &ImageExtractor{} }

// WithOCR is retained for registry wiring symmetry but is a no-op:
// images are never OCR'd directly, only PDFs are.
func (e *ImageExtractor) WithOCR(*OCRService) *ImageExtractor { return e }

func (e *ImageExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return e.processSVG(path)
	}
	return e.processRaster(path)
}

func (e *ImageExtractor) processRaster(path string) (Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening image: %w", err)
	}
	bounds := img.Bounds()

	return Result{
		Method: domain.MethodImageAnalysis,
		Metadata: domain.Metadata{
			"width":    bounds.Dx(),
			"height":   bounds.Dy(),
			"mode":     colorModeName(img),
			"ocr_used": false,
		},
	}, nil
}

// colorModeName reports a PIL-style mode string for img's pixel format.
func colorModeName(img image.Image) string {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.CMYKModel:
		return "CMYK"
	case color.NRGBAModel, color.NRGBA64Model:
		return "RGBA"
	default:
		return "RGB"
	}
}

type svgDoc struct {
	XMLName xml.Name `xml:"svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	ViewBox string   `xml:"viewBox,attr"`
}

func (e *ImageExtractor) processSVG(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading svg: %w", err)
	}

	var doc svgDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("parsing svg: %w", err)
	}

	meta := domain.Metadata{"ocr_used": false}
	if doc.Width != "" {
		meta["width"] = parseDimension(doc.Width)
	}
	if doc.Height != "" {
		meta["height"] = parseDimension(doc.Height)
	}
	if doc.ViewBox != "" {
		meta["viewbox"] = doc.ViewBox
	}

	return Result{Method: domain.MethodImageAnalysis, Metadata: meta}, nil
}

// parseDimension strips a trailing CSS unit (e.g. "120px") from an SVG
// length attribute and returns the numeric value, falling back to the
// raw string when it isn't purely numeric.
func parseDimension(s string) interface{} {
	trimmed := strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ%")
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v
	}
	return s
}
