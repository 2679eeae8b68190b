package report

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFSink renders the report as an A4 PDF with the core Helvetica font.
type PDFSink struct{}

func (PDFSink) Write(w io.Writer, s Summary) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(s.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(s.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, "Generated: "+s.GeneratedAt.Format(GeneratedLayout), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "FINAL SCORES:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, st := range s.Standings {
		pdf.CellFormat(0, 6, tr(scoreLine(st)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "DETAILED TURN-BY-TURN BREAKDOWN:", "", 1, "L", false, 0, "")
	for _, st := range s.Standings {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, tr("Player: "+st.Name), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for i, t := range st.Turns {
			for _, l := range turnLines(i, t) {
				pdf.MultiCell(0, 5, tr(l), "", "L", false)
			}
			pdf.Ln(2)
		}
	}

	return pdf.Output(w)
}
