package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePDF_ProducesDocument(t *testing.T) {
	root := t.TempDir()
	pdfPath := filepath.Join(root, "slides.pdf")

	require.NoError(t, writePDF(renderTestDeck(), filepath.Join(root, "no-icons"), pdfPath))

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestWritePDF_UnreadableIconIsSkipped(t *testing.T) {
	root := t.TempDir()
	iconsDir := filepath.Join(root, "icons")
	// Not a real PNG; the renderer must shrug it off.
	writeIconFixtures(t, iconsDir, 0, 1, 2)
	pdfPath := filepath.Join(root, "slides.pdf")

	require.NoError(t, writePDF(renderTestDeck(), iconsDir, pdfPath))

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
