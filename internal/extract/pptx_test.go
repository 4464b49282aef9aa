package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPPTX(t *testing.T, path string, slides map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestPPTXExtractor_ConcatenatesSlidesInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")

	slide1 := `<p:sld xmlns:p="ns" xmlns:a="ns"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>First</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	slide2 := `<p:sld xmlns:p="ns" xmlns:a="ns"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>Second</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`

	writeTestPPTX(t, path, map[string]string{
		"ppt/slides/slide2.xml": slide2,
		"ppt/slides/slide1.xml": slide1,
	})

	e := NewPPTXExtractor()
	res, err := e.Process(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Metadata["slide_count"])
	assert.Contains(t, res.Text, "First")
	assert.Contains(t, res.Text, "Second")
	assert.Less(t, indexOf(res.Text, "First"), indexOf(res.Text, "Second"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
