package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"jeopardy-service/internal/domain"
)

// Sink renders a summary into one document format.
type Sink interface {
	Write(w io.Writer, s Summary) error
}

// Exporter dispatches summaries to the sink registered for a format.
type Exporter struct {
	sinks map[Format]Sink
	now   func() time.Time
}

// NewExporter returns an exporter with the text, PDF and DOCX sinks.
func NewExporter() *Exporter {
	return NewExporterWithClock(time.Now)
}

// NewExporterWithClock allows deterministic generation times in tests.
func NewExporterWithClock(now func() time.Time) *Exporter {
	return &Exporter{
		sinks: map[Format]Sink{
			FormatText: TextSink{},
			FormatPDF:  PDFSink{},
			FormatDOCX: DOCXSink{},
		},
		now: now,
	}
}

// WithSink replaces the sink used for format.
func (e *Exporter) WithSink(format Format, sink Sink) *Exporter {
	e.sinks[format] = sink
	return e
}

// Render writes the summary of contestants to w.
func (e *Exporter) Render(w io.Writer, format Format, contestants []domain.Contestant) error {
	sink, ok := e.sinks[format]
	if !ok {
		return fmt.Errorf("%w: report format %s", domain.ErrUnsupportedFormat, format)
	}
	return sink.Write(w, Build(contestants, e.now()))
}

// Export writes game_report.<ext> into dir, creating it if needed, and
// returns the file path.
func (e *Exporter) Export(dir string, format Format, contestants []domain.Contestant) (string, error) {
	if _, ok := e.sinks[format]; !ok {
		return "", fmt.Errorf("%w: report format %s", domain.ErrUnsupportedFormat, format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, "game_report."+format.String())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := e.Render(f, format, contestants); err != nil {
		f.Close()
		return "", fmt.Errorf("render %s report: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	slog.Info("report generated", slog.String("path", path), slog.String("format", format.String()))
	return path, nil
}
