package report

import (
	"io"

	"github.com/gomutex/godocx"
)

// DOCXSink renders the report as a Word document.
type DOCXSink struct{}

func (DOCXSink) Write(w io.Writer, s Summary) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}
	if _, err := doc.AddHeading(s.Title, 0); err != nil {
		return err
	}
	doc.AddParagraph("Generated: " + s.GeneratedAt.Format(GeneratedLayout))

	if _, err := doc.AddHeading("FINAL SCORES:", 1); err != nil {
		return err
	}
	for _, st := range s.Standings {
		doc.AddParagraph(scoreLine(st))
	}

	if _, err := doc.AddHeading("DETAILED TURN-BY-TURN BREAKDOWN:", 1); err != nil {
		return err
	}
	for _, st := range s.Standings {
		doc.AddParagraph("").AddText("Player: " + st.Name).Bold(true)
		for i, t := range st.Turns {
			for _, l := range turnLines(i, t) {
				doc.AddParagraph(l)
			}
		}
	}
	return doc.Write(w)
}
