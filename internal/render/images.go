package render

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/slideforge/slideforge/internal/domain"
)

// renderPageImages rasterizes every page of the PDF into imagesDir as PNG,
// named by zero-based page index so they sort in slide order.
func renderPageImages(ctx context.Context, pdfPath, imagesDir string, dpi int) (int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return 0, domain.IOError(fmt.Sprintf("open pdf %s", pdfPath), err)
	}
	defer doc.Close()

	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return 0, domain.IOError("create slide images directory", err)
	}

	pageCount := doc.NumPage()
	for page := 0; page < pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return page, err
		}

		img, err := doc.ImageDPI(page, float64(dpi))
		if err != nil {
			return page, domain.IOError(fmt.Sprintf("rasterize page %d", page+1), err)
		}

		imagePath := filepath.Join(imagesDir, domain.SlideImageFileName(page))
		f, err := os.Create(imagePath)
		if err != nil {
			return page, domain.IOError(fmt.Sprintf("create slide image %s", imagePath), err)
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return page, domain.IOError(fmt.Sprintf("encode slide image %s", imagePath), err)
		}
		if err := f.Close(); err != nil {
			return page, domain.IOError(fmt.Sprintf("close slide image %s", imagePath), err)
		}
	}
	return pageCount, nil
}
