package export

import (
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// PDFExporter exports debates to PDF format.
type PDFExporter struct{}

// Export writes the debate as PDF.
func (e *PDFExporter) Export(debate *core.DebateResult, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, e.sanitizeText(debate.Topic), "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	id := debate.ID
	if len(id) > 8 {
		id = id[:8] + "..."
	}
	e.addMetadataRow(pdf, "ID:", id)
	e.addMetadataRow(pdf, "Created:", debate.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	pdf.Ln(5)

	fills := [][3]int{
		{200, 230, 255}, // light blue
		{255, 230, 200}, // light orange
		{200, 255, 200}, // light green
	}

	for i, section := range roleSections(debate) {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}

		fill := fills[i%len(fills)]
		pdf.SetFillColor(fill[0], fill[1], fill[2])

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, section.Title+" ("+section.Output.Model+")", "", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(0, 5, e.sanitizeText(section.Output.Content), "", "", false)
		pdf.Ln(5)
	}

	return pdf.Output(w)
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 6, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}

// sanitizeText strips characters the core fonts cannot render.
func (e *PDFExporter) sanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if r > 255 {
			return '?'
		}
		return r
	}, text)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}
