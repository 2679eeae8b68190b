package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loadPayload struct {
	Source string `json:"source"`
	Format string `json:"format"`
}

type joinPayload struct {
	Name string `json:"name"`
}

type selectionPayload struct {
	Category string `json:"category"`
	Value    int    `json:"value"`
	Answer   string `json:"answer"`
}

type gameInfo struct {
	GameID string `json:"gameId"`
	State  string `json:"state"`
}

type loadedPayload struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type contestantPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type boardCategory struct {
	Category string `json:"category"`
	Values   []int  `json:"values"`
}

type boardPayload struct {
	Categories []boardCategory `json:"categories"`
	Current    string          `json:"current,omitempty"`
	Complete   bool            `json:"complete"`
}

// questionPayload never carries the correct option.
type questionPayload struct {
	Category string            `json:"category"`
	Value    int               `json:"value"`
	Prompt   string            `json:"prompt"`
	Options  map[string]string `json:"options"`
}

type turnResult struct {
	Category      string `json:"category"`
	Value         int    `json:"value"`
	Found         bool   `json:"found"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Points        int    `json:"points"`
	NewScore      int    `json:"newScore"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one game table.
// Without a gameId a new game is created.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var game *app.Game
	if gameID := r.URL.Query().Get("gameId"); gameID != "" {
		g, err := h.service.Game(ctx, gameID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		game = g
	} else {
		game = h.service.Create(ctx)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	updates, cancel := game.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer goroutine; gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("ws write error", slog.String("game_id", game.ID()), slog.Any("error", err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "scoreboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "game", Payload: gameInfo{GameID: game.ID(), State: game.State().String()}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, game, inbound) {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, game *app.Game, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "load":
		var payload loadPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Source == "" {
			return failure("invalid load payload")
		}
		format, err := sourceFormat(payload)
		if err != nil {
			return failure(err.Error())
		}
		n, err := game.IngestQuestions(ctx, payload.Source, format)
		if err != nil {
			return failure(err.Error())
		}
		return reply("loaded", loadedPayload{Source: payload.Source, Count: n})

	case "join":
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Name == "" {
			return failure("invalid join payload")
		}
		id, err := game.AddContestant(payload.Name)
		if err != nil {
			return failure(err.Error())
		}
		return reply("contestant", contestantPayload{ID: id, Name: payload.Name})

	case "start":
		if err := game.Start(); err != nil {
			return failure(err.Error())
		}
		return reply("board", board(game))

	case "board":
		return reply("board", board(game))

	case "question":
		var payload selectionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return failure("invalid question payload")
		}
		q, ok := game.Peek(payload.Category, payload.Value)
		if !ok {
			return failure(domain.QuestionNotFound)
		}
		return reply("question", questionPayload{Category: q.Category, Value: q.Value, Prompt: q.Prompt, Options: q.Options})

	case "answer":
		var payload selectionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return failure("invalid answer payload")
		}
		outcome, err := h.service.Play(ctx, game.ID(), payload.Category, payload.Value, payload.Answer)
		if err != nil {
			return failure(err.Error())
		}
		return append(reply("turnResult", turnResult{
			Category:      payload.Category,
			Value:         payload.Value,
			Found:         !outcome.NotFound(),
			Correct:       outcome.Correct,
			CorrectAnswer: outcome.CorrectAnswer,
			Points:        outcome.Points,
			NewScore:      outcome.NewScore,
		}), reply("board", board(game))...)

	case "end":
		if _, err := h.service.End(ctx, game.ID()); err != nil {
			// already evicted; the connection still holds the game
			game.End()
		}
		return reply("ended", game.Scoreboard())
	}
	return failure("unsupported message type")
}

func sourceFormat(p loadPayload) (domain.SourceFormat, error) {
	if p.Format != "" {
		return domain.ParseSourceFormat(p.Format)
	}
	return domain.SourceFormatFromPath(p.Source)
}

func board(game *app.Game) boardPayload {
	sb := game.Scoreboard()
	payload := boardPayload{Current: sb.Current, Complete: sb.Complete}
	for _, category := range game.AvailableCategories() {
		payload.Categories = append(payload.Categories, boardCategory{
			Category: category,
			Values:   game.AvailableValues(category),
		})
	}
	return payload
}

func reply(typ string, payload any) []outboundMessage[any] {
	return []outboundMessage[any]{{Type: typ, Payload: payload}}
}

func failure(message string) []outboundMessage[any] {
	return reply("error", errorPayload{Message: message})
}
