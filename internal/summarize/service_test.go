package summarize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slideforge/slideforge/internal/domain"
)

type fakeGen struct {
	responses map[string]string // keyed by prompt substring
	err       error
}

func (f *fakeGen) GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for key, resp := range f.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", errors.New("no canned response")
}

const slideArrayJSON = `[
  {"title": "Intro", "bullets": ["point one", "point two"], "speaker_notes": "Welcome."},
  {"title": "Detail", "bullets": ["a", "b", "c", "d"], "speaker_notes": "More."}
]`

func TestParseSlides_PlainJSON(t *testing.T) {
	slides, err := parseSlides(slideArrayJSON)
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "Intro", slides[0].Title)
	assert.Len(t, slides[1].Bullets, 3, "bullets truncate to three")
}

func TestParseSlides_FencedJSON(t *testing.T) {
	fenced := "```json\n" + slideArrayJSON + "\n```"
	slides, err := parseSlides(fenced)
	require.NoError(t, err)
	assert.Len(t, slides, 2)
}

func TestParseSlides_JSONWithSurroundingProse(t *testing.T) {
	wrapped := "Here is your deck:\n" + slideArrayJSON + "\nLet me know if you need changes."
	slides, err := parseSlides(wrapped)
	require.NoError(t, err)
	assert.Len(t, slides, 2)
}

func TestParseSlides_RejectsGarbage(t *testing.T) {
	_, err := parseSlides("I could not summarize this document.")
	assert.Error(t, err)

	_, err = parseSlides(`[{"bullets": ["no title"]}]`)
	assert.Error(t, err)
}

func TestParseTitle(t *testing.T) {
	title, err := parseTitle("```json\n{\"title\": \"Go Deep\", \"subtitle\": \"A tour\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Go Deep", title.Title)
	assert.Equal(t, "A tour", title.Subtitle)

	_, err = parseTitle(`{"subtitle": "missing title"}`)
	assert.Error(t, err)
}

func TestFallbackTitle(t *testing.T) {
	title := fallbackTitle("input/q3_market-report.pdf")
	assert.Equal(t, "Q3 Market Report", title.Title)
	assert.NotEmpty(t, title.Subtitle)
}

func TestFallbackSlides(t *testing.T) {
	text := strings.Join([]string{
		"The first section covers revenue growth. Sales rose sharply. Margins held steady.",
		"The second section examines costs. Labor costs increased. Materials stayed flat. Overheads dropped. Rents fell.",
	}, "\n\n")

	slides := fallbackSlides(text, 8)
	require.Len(t, slides, 2)
	assert.Equal(t, "The first section covers revenue growth", slides[0].Title)
	assert.Len(t, slides[0].Bullets, 2)
	assert.Len(t, slides[1].Bullets, 3, "fallback bullets also cap at three")
	assert.NotEmpty(t, slides[0].SpeakerNotes)
}

func TestService_Summarize_WritesDeck(t *testing.T) {
	root := t.TempDir()
	textPath := filepath.Join(root, "extracted_text.txt")
	deckPath := filepath.Join(root, "slides.json")
	require.NoError(t, os.WriteFile(textPath, []byte("A document about container orchestration."), 0o644))

	gen := &fakeGen{responses: map[string]string{
		"presentation designer": slideArrayJSON,
		"title slide":           `{"title": "Container Orchestration", "subtitle": "From zero to cluster"}`,
	}}
	s := New(gen, 1, 12, 8, "input/doc.pdf", nil)

	require.NoError(t, s.Summarize(context.Background(), textPath, deckPath))

	deck, err := domain.LoadDeck(deckPath)
	require.NoError(t, err)
	assert.Equal(t, "Container Orchestration", deck.TitleSlide.Title)
	assert.Len(t, deck.ContentSlides, 2)
	assert.Equal(t, 3, deck.TotalSlides)
	assert.NotEmpty(t, deck.NarrationScript)
}

func TestService_Summarize_ClampsToMax(t *testing.T) {
	root := t.TempDir()
	textPath := filepath.Join(root, "extracted_text.txt")
	deckPath := filepath.Join(root, "slides.json")
	require.NoError(t, os.WriteFile(textPath, []byte("Some document text."), 0o644))

	var many []string
	for i := 0; i < 15; i++ {
		many = append(many, `{"title": "Slide", "bullets": [], "speaker_notes": "n"}`)
	}
	gen := &fakeGen{responses: map[string]string{
		"presentation designer": "[" + strings.Join(many, ",") + "]",
		"title slide":           `{"title": "T", "subtitle": "S"}`,
	}}
	s := New(gen, 6, 12, 8, "doc.pdf", nil)

	require.NoError(t, s.Summarize(context.Background(), textPath, deckPath))
	deck, err := domain.LoadDeck(deckPath)
	require.NoError(t, err)
	assert.Len(t, deck.ContentSlides, 12)
}

func TestService_Summarize_ModelFailureFallsBack(t *testing.T) {
	root := t.TempDir()
	textPath := filepath.Join(root, "extracted_text.txt")
	deckPath := filepath.Join(root, "slides.json")
	text := "The quarterly report shows strong growth. Revenue doubled. Costs stayed flat and the team expanded."
	require.NoError(t, os.WriteFile(textPath, []byte(text), 0o644))

	gen := &fakeGen{err: errors.New("model unavailable")}
	s := New(gen, 1, 12, 8, "input/annual_report.pdf", nil)

	require.NoError(t, s.Summarize(context.Background(), textPath, deckPath))
	deck, err := domain.LoadDeck(deckPath)
	require.NoError(t, err)
	assert.Equal(t, "Annual Report", deck.TitleSlide.Title)
	assert.NotEmpty(t, deck.ContentSlides)
}

func TestService_Summarize_ExhaustedCredentialsPropagates(t *testing.T) {
	root := t.TempDir()
	textPath := filepath.Join(root, "extracted_text.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("text"), 0o644))

	gen := &fakeGen{err: domain.ExhaustedCredentialsError("3 credentials exhausted after 3 cycles", nil)}
	s := New(gen, 1, 12, 8, "doc.pdf", nil)

	err := s.Summarize(context.Background(), textPath, filepath.Join(root, "slides.json"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeExhaustedCredentials))
}

func TestDeckPrompt_RequestsExpandedAcronyms(t *testing.T) {
	p := deckPrompt("quarterly revenue text", 8, 6, 12)
	assert.Contains(t, p, "8 slides")
	assert.Contains(t, p, "no fewer than 6")
	assert.Contains(t, p, "Expand ALL acronyms", "narration must not read bare acronyms aloud")
	assert.Contains(t, p, "quarterly revenue text")
}

func TestTitlePrompt_RequestsExpandedAcronyms(t *testing.T) {
	p := titlePrompt("doc body")
	assert.Contains(t, p, "acronyms")
	assert.Contains(t, p, "doc body")
}

func TestTruncateAtRune(t *testing.T) {
	assert.Equal(t, "short", truncateAtRune("short", 100))

	// A cut point inside a three-byte rune drops the whole rune.
	s := "ab世界"
	assert.Equal(t, "ab世", truncateAtRune(s, 5))
	assert.Equal(t, "ab", truncateAtRune(s, 4))
	assert.Equal(t, "ab", truncateAtRune(s, 3))
}

func TestService_Summarize_EmptyTextIsFatal(t *testing.T) {
	root := t.TempDir()
	textPath := filepath.Join(root, "extracted_text.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("  \n"), 0o644))

	s := New(&fakeGen{}, 1, 12, 8, "doc.pdf", nil)
	err := s.Summarize(context.Background(), textPath, filepath.Join(root, "slides.json"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnreadableDocument))
}
