// Package summarize turns extracted document text into a slide deck artifact
// using the generative text API, with a deterministic fallback when the model
// output cannot be parsed.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
)

// TextGenerator is the generative API surface the summarizer needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// maxPromptChars bounds how much document text goes into one prompt.
const maxPromptChars = 60000

// Service implements deck summarization.
type Service struct {
	gen          TextGenerator
	min, max     int
	target       int
	documentName string // used for the title fallback
	logger       *observability.Logger
}

// New creates a summarization service. documentName is the input file's base
// name, used to derive a title when the model fails to produce one.
func New(gen TextGenerator, min, max, target int, documentName string, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		gen:          gen,
		min:          min,
		max:          max,
		target:       target,
		documentName: documentName,
		logger:       logger.WithComponent("summarize"),
	}
}

// Summarize reads the text artifact, produces the deck, and writes the deck
// artifact. Model output failures degrade to a paragraph-based extraction
// rather than failing the stage; only an empty text artifact is fatal.
func (s *Service) Summarize(ctx context.Context, textPath, deckPath string) error {
	data, err := os.ReadFile(textPath)
	if err != nil {
		return domain.IOError(fmt.Sprintf("read text artifact %s", textPath), err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return domain.UnreadableDocumentError("text artifact is empty", nil)
	}
	text = truncateAtRune(text, maxPromptChars)

	slides, err := s.generateSlides(ctx, text)
	if err != nil {
		if domain.IsType(err, domain.ErrorTypeExhaustedCredentials) {
			return err
		}
		s.logger.Warn().Err(err).Msg("model summarization failed, using paragraph fallback")
		slides = fallbackSlides(text, s.target)
	}
	if len(slides) > s.max {
		slides = slides[:s.max]
	}
	if len(slides) < s.min {
		// A thin document can legitimately yield a short deck; splitting
		// slides to pad the count would fabricate structure.
		s.logger.Warn().Int("slides", len(slides)).Int("min", s.min).Msg("deck below configured minimum")
	}

	title, err := s.generateTitle(ctx, text)
	if err != nil {
		if domain.IsType(err, domain.ErrorTypeExhaustedCredentials) {
			return err
		}
		s.logger.Warn().Err(err).Msg("title generation failed, deriving from filename")
		title = fallbackTitle(s.documentName)
	}

	deck := &domain.Deck{
		TitleSlide:    title,
		ContentSlides: slides,
	}
	if err := deck.Validate(); err != nil {
		return err
	}

	s.logger.Info().
		Int("content_slides", len(deck.ContentSlides)).
		Str("title", deck.TitleSlide.Title).
		Msg("deck summarized")

	if err := os.MkdirAll(filepath.Dir(deckPath), 0o755); err != nil {
		return domain.IOError("create deck artifact directory", err)
	}
	return domain.SaveDeck(deckPath, deck)
}

func (s *Service) generateSlides(ctx context.Context, text string) ([]domain.SlideSpec, error) {
	raw, err := s.gen.GenerateText(ctx, deckPrompt(text, s.target, s.min, s.max), 0.3, 8192)
	if err != nil {
		return nil, err
	}
	slides, err := parseSlides(raw)
	if err != nil {
		return nil, err
	}
	return slides, nil
}

func (s *Service) generateTitle(ctx context.Context, text string) (domain.TitleSlide, error) {
	raw, err := s.gen.GenerateText(ctx, titlePrompt(text), 0.5, 512)
	if err != nil {
		return domain.TitleSlide{}, err
	}
	return parseTitle(raw)
}

// parseSlides decodes the model's slide array, tolerating markdown fences
// and surrounding prose.
func parseSlides(raw string) ([]domain.SlideSpec, error) {
	payload := extractJSON(raw, '[', ']')
	if payload == "" {
		return nil, fmt.Errorf("no JSON array in model output")
	}

	var slides []domain.SlideSpec
	if err := json.Unmarshal([]byte(payload), &slides); err != nil {
		return nil, fmt.Errorf("parse slide array: %w", err)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("model produced zero slides")
	}

	for i := range slides {
		slides[i].Title = strings.TrimSpace(slides[i].Title)
		if len(slides[i].Bullets) > 3 {
			slides[i].Bullets = slides[i].Bullets[:3]
		}
		if slides[i].Title == "" {
			return nil, fmt.Errorf("slide %d has no title", i+1)
		}
	}
	return slides, nil
}

func parseTitle(raw string) (domain.TitleSlide, error) {
	payload := extractJSON(raw, '{', '}')
	if payload == "" {
		return domain.TitleSlide{}, fmt.Errorf("no JSON object in model output")
	}
	var title domain.TitleSlide
	if err := json.Unmarshal([]byte(payload), &title); err != nil {
		return domain.TitleSlide{}, fmt.Errorf("parse title slide: %w", err)
	}
	if strings.TrimSpace(title.Title) == "" {
		return domain.TitleSlide{}, fmt.Errorf("title slide has empty title")
	}
	return title, nil
}

// extractJSON strips markdown code fences and slices out the outermost
// opener..closer span.
func extractJSON(raw string, opener, closer byte) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.IndexByte(raw, opener)
	end := strings.LastIndexByte(raw, closer)
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// fallbackSlides builds a deck from paragraph structure when the model
// output is unusable. First sentence becomes the title, the rest bullets.
func fallbackSlides(text string, target int) []domain.SlideSpec {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) > target {
		paragraphs = paragraphs[:target]
	}

	slides := make([]domain.SlideSpec, 0, len(paragraphs))
	for _, p := range paragraphs {
		sentences := splitSentences(p)
		if len(sentences) == 0 {
			continue
		}
		title := sentences[0]
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		bullets := sentences[1:]
		if len(bullets) > 3 {
			bullets = bullets[:3]
		}
		slides = append(slides, domain.SlideSpec{
			Title:        title,
			Bullets:      bullets,
			SpeakerNotes: p,
		})
	}
	if len(slides) == 0 {
		slides = []domain.SlideSpec{{
			Title:        "Overview",
			SpeakerNotes: firstN(text, 400),
		}}
	}
	return slides
}

// fallbackTitle derives a presentation title from the document file name.
func fallbackTitle(documentName string) domain.TitleSlide {
	base := strings.TrimSuffix(filepath.Base(documentName), filepath.Ext(documentName))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" {
		base = "Presentation"
	}
	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return domain.TitleSlide{
		Title:    strings.Join(words, " "),
		Subtitle: "An automated summary",
	}
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) >= 40 {
			out = append(out, p)
		}
	}
	return out
}

func splitSentences(p string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(p, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
