package extract

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

func TestImageExtractor_SVG_ReturnsEmptyTextWithDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diagram.svg")
	content := `<svg xmlns="http://www.w3.org/2000/svg" width="120px" height="80" viewBox="0 0 120 80"><text>hello</text></svg>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := NewImageExtractor()
	res, err := e.Process(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Equal(t, domain.MethodImageAnalysis, res.Method)
	assert.Equal(t, 120.0, res.Metadata["width"])
	assert.Equal(t, 80.0, res.Metadata["height"])
	assert.Equal(t, "0 0 120 80", res.Metadata["viewbox"])
}

func TestImageExtractor_Raster_ReturnsEmptyTextWithDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	e := NewImageExtractor()
	res, err := e.Process(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Equal(t, domain.MethodImageAnalysis, res.Method)
	assert.Equal(t, 4, res.Metadata["width"])
	assert.Equal(t, 3, res.Metadata["height"])
	assert.Equal(t, false, res.Metadata["ocr_used"])
}
