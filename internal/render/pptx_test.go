package render

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slideforge/slideforge/internal/domain"
)

func renderTestDeck() *domain.Deck {
	return &domain.Deck{
		TitleSlide: domain.TitleSlide{Title: "Queues & Streams", Subtitle: "Async <patterns>"},
		ContentSlides: []domain.SlideSpec{
			{
				Title:        "Backpressure",
				Bullets:      []string{"bounded buffers", "slow consumers"},
				SpeakerNotes: "Buffers stay bounded & consumers catch up.",
			},
			{Title: "Delivery", Bullets: []string{"at-least-once"}},
		},
	}
}

func writeIconFixtures(t *testing.T, iconsDir string, indexes ...int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(iconsDir, 0o755))
	for _, i := range indexes {
		require.NoError(t, os.WriteFile(
			filepath.Join(iconsDir, domain.IconFileName(i)), []byte("png-bytes"), 0o644))
	}
}

func readZipPart(t *testing.T, zr *zip.ReadCloser, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not in package", name)
	return ""
}

func TestWritePPTX_PackageStructure(t *testing.T) {
	root := t.TempDir()
	iconsDir := filepath.Join(root, "icons")
	writeIconFixtures(t, iconsDir, 0, 1, 2)
	pptxPath := filepath.Join(root, "slides.pptx")

	require.NoError(t, writePPTX(renderTestDeck(), iconsDir, pptxPath))

	zr, err := zip.OpenReader(pptxPath)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slides/slide3.xml",
		"ppt/slides/_rels/slide1.xml.rels",
		"ppt/media/image1.png",
		"ppt/media/image3.png",
	} {
		assert.True(t, names[want], "missing package part %s", want)
	}

	presentation := readZipPart(t, zr, "ppt/presentation.xml")
	assert.Contains(t, presentation, `cx="12192000" cy="6858000"`, "16:9 slide size")
	assert.Equal(t, 3, strings.Count(presentation, "<p:sldId "))
}

func TestWritePPTX_SlideContent(t *testing.T) {
	root := t.TempDir()
	iconsDir := filepath.Join(root, "icons")
	writeIconFixtures(t, iconsDir, 0)
	pptxPath := filepath.Join(root, "slides.pptx")

	require.NoError(t, writePPTX(renderTestDeck(), iconsDir, pptxPath))

	zr, err := zip.OpenReader(pptxPath)
	require.NoError(t, err)
	defer zr.Close()

	title := readZipPart(t, zr, "ppt/slides/slide1.xml")
	assert.Contains(t, title, "Queues &amp; Streams", "title text is XML-escaped")
	assert.Contains(t, title, "Async &lt;patterns&gt;")
	assert.Contains(t, title, "r:embed", "title slide embeds its icon")

	content := readZipPart(t, zr, "ppt/slides/slide2.xml")
	assert.Contains(t, content, "Backpressure")
	assert.Contains(t, content, "bounded buffers")
	assert.NotContains(t, content, "r:embed", "slides without an icon file skip the picture")

	rels := readZipPart(t, zr, "ppt/slides/_rels/slide2.xml.rels")
	assert.NotContains(t, rels, "image", "no image relationship without an icon")
}

func TestWritePPTX_SpeakerNotes(t *testing.T) {
	root := t.TempDir()
	pptxPath := filepath.Join(root, "slides.pptx")

	require.NoError(t, writePPTX(renderTestDeck(), filepath.Join(root, "missing-icons"), pptxPath))

	zr, err := zip.OpenReader(pptxPath)
	require.NoError(t, err)
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["ppt/notesMasters/notesMaster1.xml"])
	assert.True(t, names["ppt/notesSlides/notesSlide2.xml"], "slide with speaker notes gets a notes part")
	assert.False(t, names["ppt/notesSlides/notesSlide1.xml"], "title slide has no notes")
	assert.False(t, names["ppt/notesSlides/notesSlide3.xml"], "slide without notes gets no notes part")

	notes := readZipPart(t, zr, "ppt/notesSlides/notesSlide2.xml")
	assert.Contains(t, notes, "Buffers stay bounded &amp; consumers catch up.", "notes text is XML-escaped")

	rels := readZipPart(t, zr, "ppt/slides/_rels/slide2.xml.rels")
	assert.Contains(t, rels, "notesSlides/notesSlide2.xml")

	types := readZipPart(t, zr, "[Content_Types].xml")
	assert.Contains(t, types, "/ppt/notesSlides/notesSlide2.xml")
	assert.Contains(t, types, "notesMaster1.xml")

	presentation := readZipPart(t, zr, "ppt/presentation.xml")
	assert.Contains(t, presentation, "<p:notesMasterIdLst>")
}

func TestWritePPTX_NoIconsAtAll(t *testing.T) {
	root := t.TempDir()
	pptxPath := filepath.Join(root, "slides.pptx")

	require.NoError(t, writePPTX(renderTestDeck(), filepath.Join(root, "missing-icons"), pptxPath))

	zr, err := zip.OpenReader(pptxPath)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		assert.False(t, strings.HasPrefix(f.Name, "ppt/media/"), "no media parts expected")
	}
}
