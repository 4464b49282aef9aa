package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLExtractor_StripsMarkupAndScripts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	content := `<html><head><title>My Page</title><style>.x{color:red}</style></head>
	<body><script>alert(1)</script><h1>Hello</h1><p>World</p></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := NewHTMLExtractor()
	res, err := e.Process(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", res.Text)
	assert.Equal(t, "My Page", res.Metadata["title"])
}
