package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/report"
)

// GamesHandler serves the downloadable artifacts of a game.
type GamesHandler struct {
	service  *app.GameService
	exporter *report.Exporter
}

func NewGamesHandler(service *app.GameService, exporter *report.Exporter) *GamesHandler {
	return &GamesHandler{service: service, exporter: exporter}
}

// Events writes the interaction log table of the game as CSV.
func (h *GamesHandler) Events(w http.ResponseWriter, r *http.Request) {
	game, err := h.service.Game(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := game.WriteEventLog(&buf); err != nil {
		slog.Error("event log export failed", slog.String("game_id", game.ID()), slog.Any("error", err))
		http.Error(w, "event log export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="game_event_log.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// Report renders the summary report in the format given by ?format= (txt, pdf, docx).
func (h *GamesHandler) Report(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	game, err := h.service.Game(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := game.WriteReport(&buf, h.exporter, format); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		slog.Error("report export failed", slog.String("game_id", game.ID()), slog.Any("error", err))
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="game_report.`+format.String()+`"`)
	_, _ = w.Write(buf.Bytes())
}
