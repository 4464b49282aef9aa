package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// HTMLExtractor strips markup from an HTML document via
// PuerkitoBio/goquery, dropping script/style content and collapsing
// whitespace.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (e *HTMLExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening html: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return Result{}, fmt.Errorf("parsing html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript").Remove()
	// Separate the text of adjacent elements so words in sibling blocks
	// do not run together.
	doc.Find("body *").AppendHtml(" ")

	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		text = collapseWhitespace(doc.Text())
	}

	meta := domain.Metadata{}
	if title != "" {
		meta["title"] = title
	}

	return Result{
		Text:     text,
		Method:   domain.MethodTextExtraction,
		Metadata: meta,
	}, nil
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
