package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/slideforge/slideforge/internal/domain"
)

// 16:9 slide geometry in millimeters (13.333 x 7.5 inches).
const (
	pageWidth  = 338.7
	pageHeight = 190.5
	margin     = 20.0
	iconSize   = 35.0
)

// writePDF renders the deck as a landscape 16:9 PDF, one page per slide.
func writePDF(deck *domain.Deck, iconsDir, pdfPath string) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageHeight, Ht: pageWidth},
	})
	pdf.SetAutoPageBreak(false, 0)

	for _, slide := range deck.Slides() {
		pdf.AddPage()
		if slide.IsTitle {
			drawTitlePage(pdf, deck.TitleSlide)
		} else {
			drawContentPage(pdf, slide)
		}
		drawIcon(pdf, iconsDir, slide.Index)
	}

	if err := os.MkdirAll(filepath.Dir(pdfPath), 0o755); err != nil {
		return domain.IOError("create pdf directory", err)
	}
	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return domain.IOError(fmt.Sprintf("write pdf %s", pdfPath), err)
	}
	return nil
}

func drawTitlePage(pdf *fpdf.Fpdf, title domain.TitleSlide) {
	pdf.SetFillColor(31, 56, 100)
	pdf.Rect(0, 0, pageWidth, pageHeight, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 40)
	pdf.SetXY(margin, pageHeight/2-30)
	pdf.MultiCell(pageWidth-2*margin, 16, title.Title, "", "C", false)

	pdf.SetFont("Helvetica", "", 20)
	pdf.SetX(margin)
	pdf.MultiCell(pageWidth-2*margin, 10, title.Subtitle, "", "C", false)
}

func drawContentPage(pdf *fpdf.Fpdf, slide domain.Slide) {
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(0, 0, pageWidth, pageHeight, "F")

	pdf.SetTextColor(31, 56, 100)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetXY(margin, margin)
	pdf.MultiCell(pageWidth-2*margin-iconSize-10, 12, slide.Spec.Title, "", "L", false)

	pdf.SetDrawColor(31, 56, 100)
	pdf.SetLineWidth(0.8)
	pdf.Line(margin, 55, pageWidth-margin, 55)

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 18)
	y := 70.0
	for _, bullet := range slide.Spec.Bullets {
		pdf.SetXY(margin+5, y)
		pdf.MultiCell(pageWidth-2*margin-15, 9, "\x95 "+bullet, "", "L", false)
		y = pdf.GetY() + 6
	}
}

// drawIcon places the slide's icon in the top-right corner. A missing or
// unreadable icon file is skipped silently; icons are decoration.
func drawIcon(pdf *fpdf.Fpdf, iconsDir string, index int) {
	iconPath := filepath.Join(iconsDir, domain.IconFileName(index))
	if _, err := os.Stat(iconPath); err != nil {
		return
	}
	pdf.ImageOptions(iconPath, pageWidth-margin-iconSize, margin, iconSize, iconSize, false,
		fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if pdf.Err() {
		// Clear the error so one bad icon does not poison the document.
		pdf.ClearError()
	}
}
