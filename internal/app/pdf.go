package app

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/gocards/internal/cards"
)

// writeCardsPDF renders a study sheet: one numbered block per card with the
// prompt in bold, the answer below, and the source as a link.
func writeCardsPDF(title string, list []cards.Card, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d cards", len(list)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	lastSource := ""
	for i, c := range list {
		if c.Source != lastSource && c.Source != "" {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.SetTextColor(0, 0, 160)
			pdf.WriteLinkString(5, tr(c.Source), c.Source)
			pdf.SetTextColor(0, 0, 0)
			pdf.Ln(7)
			lastSource = c.Source
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(c.Front))), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetX(pdf.GetX() + 5)
		pdf.MultiCell(0, 5, tr(strings.TrimSpace(c.Back)), "", "L", false)
		pdf.Ln(3)
	}
	return pdf.OutputFileAndClose(outPath)
}
