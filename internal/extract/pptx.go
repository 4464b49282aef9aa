package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// PPTXExtractor walks a .pptx package's ppt/slides/slideN.xml parts and
// concatenates their <a:t> text runs in slide order. Slide parts are
// plain zipped XML, read directly with archive/zip and encoding/xml.
type PPTXExtractor struct{}

func NewPPTXExtractor() *PPTXExtractor { return &PPTXExtractor{} }

type pptxSlideXML struct {
	XMLName xml.Name       `xml:"sld"`
	Texts   []pptxTextNode `xml:"cSld>spTree>sp>txBody>p>r>t"`
}

type pptxTextNode struct {
	Value string `xml:",chardata"`
}

func (e *PPTXExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening pptx: %w", err)
	}
	defer zr.Close()

	type slide struct {
		index int
		file   *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		name := f.Name
		if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
		n, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		slides = append(slides, slide{index: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].index < slides[j].index })

	var sb strings.Builder
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		var parsed pptxSlideXML
		if err := xml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		for _, t := range parsed.Texts {
			if t.Value == "" {
				continue
			}
			sb.WriteString(t.Value)
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}

	return Result{
		Text:   sb.String(),
		Method: domain.MethodTextExtraction,
		Metadata: domain.Metadata{
			"slide_count": len(slides),
		},
	}, nil
}
