package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// DOCXExtractor pulls paragraph text out of a .docx package via
// fumiama/go-docx's parsed document tree (Body.Items -> *Paragraph ->
// Children -> *Run -> Text).
type DOCXExtractor struct{}

func NewDOCXExtractor() *DOCXExtractor { return &DOCXExtractor{} }

func (e *DOCXExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("opening docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return Result{}, fmt.Errorf("opening docx: %w", err)
	}

	var sb strings.Builder
	paragraphs := 0
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := p.String()
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		paragraphs++
	}

	return Result{
		Text:   sb.String(),
		Method: domain.MethodTextExtraction,
		Metadata: domain.Metadata{
			"paragraph_count": paragraphs,
		},
	}, nil
}
