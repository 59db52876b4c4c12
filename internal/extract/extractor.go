// Package extract pulls plain text out of the input document. Digital text
// is read per page with MuPDF; pages whose embedded text is too thin fall
// back to OCR on a rendered page image.
package extract

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
	"github.com/slideforge/slideforge/internal/xcmd"
)

// Extractor implements text extraction with an OCR fallback.
type Extractor struct {
	threshold int     // min chars of digital text before OCR kicks in
	zoom      float64 // render scale for OCR page images
	runner    xcmd.Runner
	tesseract string
	logger    *observability.Logger
}

// New creates an Extractor. threshold is the minimum digital text length, in
// characters, below which a page is re-read through OCR.
func New(threshold int, zoom float64, runner xcmd.Runner, logger *observability.Logger) *Extractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Extractor{
		threshold: threshold,
		zoom:      zoom,
		runner:    runner,
		tesseract: "tesseract",
		logger:    logger.WithComponent("extract"),
	}
}

// Extract reads every page of the document and writes the concatenated text
// artifact. It fails with an unreadable-document error only when the whole
// document yields no text at all.
func (e *Extractor) Extract(ctx context.Context, documentPath, textPath string) error {
	doc, err := fitz.New(documentPath)
	if err != nil {
		return domain.UnreadableDocumentError(fmt.Sprintf("open document %s", documentPath), err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return domain.UnreadableDocumentError("document has no pages", nil)
	}

	var out strings.Builder
	digitalPages := 0
	ocrPages := 0

	for page := 0; page < pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := doc.Text(page)
		if err != nil {
			e.logger.Warn().Int("page", page+1).Err(err).Msg("digital text read failed")
			text = ""
		}
		text = strings.TrimSpace(text)

		if len(text) < e.threshold {
			ocrText, ocrErr := e.ocrPage(ctx, doc, page)
			if ocrErr != nil {
				e.logger.Warn().Int("page", page+1).Err(ocrErr).Msg("ocr fallback failed")
			} else if len(ocrText) > len(text) {
				text = ocrText
				ocrPages++
			}
		} else {
			digitalPages++
		}

		if text != "" {
			out.WriteString(text)
			out.WriteString("\n\n")
		}
	}

	combined := strings.TrimSpace(out.String())
	if combined == "" {
		return domain.UnreadableDocumentError(
			fmt.Sprintf("no text recoverable from %s, digital or ocr", documentPath), nil)
	}

	e.logger.Info().
		Int("pages", pageCount).
		Int("digital", digitalPages).
		Int("ocr", ocrPages).
		Int("chars", len(combined)).
		Msg("text extraction complete")

	if err := os.MkdirAll(filepath.Dir(textPath), 0o755); err != nil {
		return domain.IOError("create text artifact directory", err)
	}
	if err := os.WriteFile(textPath, []byte(combined+"\n"), 0o644); err != nil {
		return domain.IOError(fmt.Sprintf("write text artifact %s", textPath), err)
	}
	return nil
}

// ocrPage renders one page at the configured zoom and runs it through
// tesseract. The rendered image lives in a temp dir that is removed before
// returning.
func (e *Extractor) ocrPage(ctx context.Context, doc *fitz.Document, page int) (string, error) {
	// 72 dpi is the PDF base resolution; zoom scales from there.
	img, err := doc.ImageDPI(page, 72*e.zoom)
	if err != nil {
		return "", domain.IOError(fmt.Sprintf("render page %d for ocr", page+1), err)
	}

	tempDir, err := os.MkdirTemp("", "slideforge-ocr-*")
	if err != nil {
		return "", domain.IOError("create ocr temp directory", err)
	}
	defer os.RemoveAll(tempDir)

	imagePath := filepath.Join(tempDir, fmt.Sprintf("page_%03d.png", page+1))
	f, err := os.Create(imagePath)
	if err != nil {
		return "", domain.IOError("create ocr page image", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", domain.IOError("encode ocr page image", err)
	}
	f.Close()

	result, err := e.runner.Run(ctx, e.tesseract, imagePath, "stdout")
	if err != nil {
		return "", fmt.Errorf("tesseract exit %d: %w", result.ExitCode, err)
	}
	return strings.TrimSpace(result.Stdout), nil
}
