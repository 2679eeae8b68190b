// Package report renders end-of-game summaries. The content model is
// format-independent; a Sink turns it into a concrete document.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"jeopardy-service/internal/domain"
)

const (
	// Title heads every summary.
	Title = "JEOPARDY GAME SUMMARY REPORT"
	// GeneratedLayout formats the generation timestamp.
	GeneratedLayout = "2006-01-02 15:04:05"
)

// Summary is the content of a report.
type Summary struct {
	Title       string
	GeneratedAt time.Time
	Standings   []Standing
}

// Standing is one ranked contestant with their turns in play order.
type Standing struct {
	Rank  int
	Name  string
	Score int
	Turns []domain.TurnRecord
}

// Build ranks contestants by final score, highest first. Ties keep the
// order in which contestants were given, which is registration order.
func Build(contestants []domain.Contestant, now time.Time) Summary {
	ranked := make([]domain.Contestant, len(contestants))
	copy(ranked, contestants)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	standings := make([]Standing, 0, len(ranked))
	for i, c := range ranked {
		standings = append(standings, Standing{
			Rank:  i + 1,
			Name:  c.Name,
			Score: c.Score,
			Turns: c.Turns,
		})
	}
	return Summary{Title: Title, GeneratedAt: now, Standings: standings}
}

// ResultLabel is the printed outcome of a turn.
func ResultLabel(t domain.TurnRecord) string {
	if t.Correct {
		return "CORRECT"
	}
	return "INCORRECT"
}

// scoreLine is shared by every sink.
func scoreLine(s Standing) string {
	return fmt.Sprintf("%d. %s: %d points", s.Rank, s.Name, s.Score)
}

// turnLines is the per-turn breakdown shared by every sink.
func turnLines(i int, t domain.TurnRecord) []string {
	return []string{
		fmt.Sprintf("Turn %d:", i+1),
		fmt.Sprintf("  Category: %s", t.Category),
		fmt.Sprintf("  Question Value: %d points", t.Value),
		fmt.Sprintf("  Question: %s", t.Prompt),
		fmt.Sprintf("  Given Answer: %s", t.Answer),
		fmt.Sprintf("  Result: %s", ResultLabel(t)),
		fmt.Sprintf("  Points Earned: %+d", t.Points),
		fmt.Sprintf("  Running Total: %d", t.RunningTotal),
	}
}

// Format is the closed set of report encodings.
type Format int

const (
	FormatText Format = iota + 1
	FormatPDF
	FormatDOCX
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ContentType is the MIME type of documents in format f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "text/plain; charset=utf-8"
}

// ParseFormat resolves "txt", "pdf" or "docx"; an empty tag means text.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "txt", "text":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	}
	return 0, fmt.Errorf("%w: report format %q", domain.ErrUnsupportedFormat, tag)
}
