package report

import (
	"bufio"
	"io"
	"strings"
)

const rule = "-------------------------------------"

// TextSink renders the plain-text report.
type TextSink struct{}

func (TextSink) Write(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	line := func(text string) {
		bw.WriteString(text)
		bw.WriteByte('\n')
	}

	banner := strings.Repeat("=", len(rule))
	line(banner)
	line("    " + s.Title)
	line(banner)
	line("Generated: " + s.GeneratedAt.Format(GeneratedLayout))
	line("")

	line("FINAL SCORES:")
	line(rule)
	for _, st := range s.Standings {
		line(scoreLine(st))
	}
	line("")

	line("DETAILED TURN-BY-TURN BREAKDOWN:")
	line(banner)
	line("")
	for _, st := range s.Standings {
		line("Player: " + st.Name)
		line(rule)
		for i, t := range st.Turns {
			for _, l := range turnLines(i, t) {
				line(l)
			}
			line("")
		}
		line("")
	}
	return bw.Flush()
}
