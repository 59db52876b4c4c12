package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TitleSlide is the opening slide of a deck. It is displayed silently for a
// fixed duration during video assembly.
type TitleSlide struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// SlideSpec is the structured content for one content slide.
type SlideSpec struct {
	Title        string   `json:"title"`
	Bullets      []string `json:"bullets"`
	SpeakerNotes string   `json:"speaker_notes"`
	IconQuery    string   `json:"icon_query,omitempty"`
}

// NarrationText returns the text to narrate for the slide: speaker notes
// when present, otherwise title and bullets joined.
func (s SlideSpec) NarrationText() string {
	if strings.TrimSpace(s.SpeakerNotes) != "" {
		return s.SpeakerNotes
	}
	return s.Title + ". " + strings.Join(s.Bullets, " ")
}

// Deck is the summarization stage's artifact: one title slide plus ordered
// content slides. Slide order is the sole join key between rendered images
// and narration clips, so it is preserved end to end.
type Deck struct {
	TitleSlide      TitleSlide  `json:"title_slide"`
	ContentSlides   []SlideSpec `json:"content_slides"`
	TotalSlides     int         `json:"total_slides"`
	NarrationScript string      `json:"narration_script"`
}

// Slide identifies one slide by position. Index 0 is always the title slide.
type Slide struct {
	Index   int
	IsTitle bool
	Spec    SlideSpec
}

// Slides returns the full ordered slide list, title slide first. The title
// slide is represented as a SlideSpec with the subtitle as its only bullet.
func (d *Deck) Slides() []Slide {
	slides := make([]Slide, 0, len(d.ContentSlides)+1)
	slides = append(slides, Slide{
		Index:   0,
		IsTitle: true,
		Spec: SlideSpec{
			Title:   d.TitleSlide.Title,
			Bullets: []string{d.TitleSlide.Subtitle},
		},
	})
	for i, spec := range d.ContentSlides {
		slides = append(slides, Slide{Index: i + 1, Spec: spec})
	}
	return slides
}

// IconFileName returns the fixed icon artifact name for a slide index.
// Index 0 maps to the title slide.
func IconFileName(index int) string {
	if index == 0 {
		return "title.png"
	}
	return fmt.Sprintf("slide_%02d.png", index)
}

// SlideImageFileName returns the fixed rendered-page artifact name for a
// slide index (zero-based, matching PDF page order).
func SlideImageFileName(index int) string {
	return fmt.Sprintf("slide_%02d.png", index)
}

// AudioFileName returns the fixed narration artifact name for a content
// slide index. The title slide (index 0) has no narration clip.
func AudioFileName(index int) string {
	return fmt.Sprintf("audio_%02d.mp3", index)
}

// Script builds a cohesive narration script over all content slides.
func (d *Deck) Script() string {
	parts := make([]string, 0, len(d.ContentSlides))
	for _, s := range d.ContentSlides {
		parts = append(parts, s.NarrationText())
	}
	return strings.Join(parts, " ")
}

// Validate checks the deck invariants the downstream stages rely on.
func (d *Deck) Validate() error {
	if strings.TrimSpace(d.TitleSlide.Title) == "" {
		return ConfigError("deck has no title slide", nil)
	}
	if len(d.ContentSlides) == 0 {
		return ConfigError("deck has no content slides", nil)
	}
	for i, s := range d.ContentSlides {
		if strings.TrimSpace(s.Title) == "" {
			return ConfigError(fmt.Sprintf("content slide %d has no title", i+1), nil)
		}
	}
	return nil
}

// LoadDeck reads a deck artifact from disk.
func LoadDeck(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, IOError(fmt.Sprintf("read deck %s", path), err)
	}
	var deck Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, IOError(fmt.Sprintf("parse deck %s", path), err)
	}
	return &deck, nil
}

// SaveDeck writes a deck artifact to disk.
func SaveDeck(path string, deck *Deck) error {
	deck.TotalSlides = len(deck.ContentSlides) + 1
	if deck.NarrationScript == "" {
		deck.NarrationScript = deck.Script()
	}
	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return IOError("marshal deck", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return IOError(fmt.Sprintf("write deck %s", path), err)
	}
	return nil
}
