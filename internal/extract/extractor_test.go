package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

func TestFormatForExtension_Supported(t *testing.T) {
	f, err := FormatForExtension("report.PDF")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatPDF, f)
}

func TestFormatForExtension_Unsupported(t *testing.T) {
	_, err := FormatForExtension("archive.zip")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

type stubExtractor struct {
	result Result
	err    error
}

func (s stubExtractor) Process(ctx context.Context, path string, opts Options) (Result, error) {
	return s.result, s.err
}

func TestRegistry_Process_DispatchesAndStampsFormat(t *testing.T) {
	r := &Registry{extractors: map[domain.Format]Extractor{
		domain.FormatHTML: stubExtractor{result: Result{Text: "hi", Metadata: domain.Metadata{}}},
	}}

	res, err := r.Process(context.Background(), "page.html", Options{})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Text)
	assert.Equal(t, string(domain.FormatHTML), res.Metadata["format"])
}

func TestRegistry_Process_WrapsExtractorError(t *testing.T) {
	r := &Registry{extractors: map[domain.Format]Extractor{
		domain.FormatHTML: stubExtractor{err: assert.AnError},
	}}

	_, err := r.Process(context.Background(), "page.html", Options{})
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestRegistry_Process_UnsupportedFormat(t *testing.T) {
	r := &Registry{extractors: map[domain.Format]Extractor{}}
	_, err := r.Process(context.Background(), "page.zip", Options{})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
