// Package render produces the presentation artifacts from a deck: the PPTX
// file, the PDF file, and the per-page PNG images the video stage consumes.
package render

import (
	"context"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
)

// Renderer implements deck rendering to PPTX, PDF, and page images.
type Renderer struct {
	dpi    int
	logger *observability.Logger
}

// New creates a renderer. dpi controls the page image resolution.
func New(dpi int, logger *observability.Logger) *Renderer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Renderer{dpi: dpi, logger: logger.WithComponent("render")}
}

// RenderPPTX writes the deck as a PowerPoint file with one icon per slide.
func (r *Renderer) RenderPPTX(ctx context.Context, deckPath, iconsDir, pptxPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deck, err := domain.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	if err := writePPTX(deck, iconsDir, pptxPath); err != nil {
		return err
	}
	r.logger.Info().Int("slides", len(deck.Slides())).Str("path", pptxPath).Msg("pptx rendered")
	return nil
}

// RenderPDF writes the deck as a PDF and rasterizes every page into
// imagesDir. The page images share the PDF's slide order, which the video
// stage relies on to pair images with narration.
func (r *Renderer) RenderPDF(ctx context.Context, deckPath, iconsDir, pdfPath, imagesDir string) error {
	deck, err := domain.LoadDeck(deckPath)
	if err != nil {
		return err
	}
	if err := writePDF(deck, iconsDir, pdfPath); err != nil {
		return err
	}
	r.logger.Info().Int("slides", len(deck.Slides())).Str("path", pdfPath).Msg("pdf rendered")

	count, err := renderPageImages(ctx, pdfPath, imagesDir, r.dpi)
	if err != nil {
		return err
	}
	r.logger.Info().Int("pages", count).Int("dpi", r.dpi).Str("dir", imagesDir).Msg("slide images rendered")
	return nil
}
