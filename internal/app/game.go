package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"jeopardy-service/internal/activity"
	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/report"
)

// QuestionSource produces the ordered question records of a source.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, sourceID string, format domain.SourceFormat) ([]domain.Question, error)
}

// Game runs one session from registration to its explicit end. It is the
// only owner of turn order, question availability and contestant scores.
type Game struct {
	id     string
	source QuestionSource
	events *activity.Scope
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       domain.State
	questions   []*domain.Question
	byCategory  map[string][]*domain.Question
	roster      []*contestant
	turn        int
	subscribers map[chan domain.Scoreboard]struct{}
}

type contestant struct {
	id    string
	name  string
	score int
	turns []domain.TurnRecord
}

func (c *contestant) snapshot() domain.Contestant {
	turns := make([]domain.TurnRecord, len(c.turns))
	copy(turns, c.turns)
	return domain.Contestant{ID: c.id, Name: c.name, Score: c.score, Turns: turns}
}

// NewGame creates a game recording into events. A nil log gets a private one.
func NewGame(id string, source QuestionSource, events *activity.Log) *Game {
	return NewGameWithClock(id, source, events, time.Now)
}

// NewGameWithClock allows deterministic scoreboard timestamps in tests.
func NewGameWithClock(id string, source QuestionSource, events *activity.Log, now func() time.Time) *Game {
	if events == nil {
		events = activity.NewLog()
	}
	return &Game{
		id:          id,
		source:      source,
		events:      events.Scope(id),
		logger:      slog.Default().With(slog.String("game_id", id)),
		now:         now,
		byCategory:  make(map[string][]*domain.Question),
		subscribers: make(map[chan domain.Scoreboard]struct{}),
	}
}

func (g *Game) ID() string { return g.id }

// Events is the interaction log scope of this game.
func (g *Game) Events() *activity.Scope { return g.events }

func (g *Game) State() domain.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IngestQuestions loads sourceID and appends its records to the bank. A
// failed load adds nothing and keeps previously ingested records.
func (g *Game) IngestQuestions(ctx context.Context, sourceID string, format domain.SourceFormat) (int, error) {
	g.mu.Lock()
	err := g.requireLocked(domain.NotStarted, "ingest questions")
	g.mu.Unlock()
	if err != nil {
		return 0, err
	}

	g.events.RecordSystem(domain.ActivityLoadFile, "Attempting to load: "+sourceID)
	loaded, err := g.load(ctx, sourceID, format)
	if err != nil {
		g.events.RecordSystem(domain.ActivityLoadFileFailed, "Error: "+err.Error())
		g.logger.Warn("question load failed", slog.String("source", sourceID), slog.Any("error", err))
		return 0, err
	}

	g.mu.Lock()
	if err := g.requireLocked(domain.NotStarted, "ingest questions"); err != nil {
		g.mu.Unlock()
		return 0, err
	}
	for i := range loaded {
		q := loaded[i].Clone()
		q.Answered = false
		g.questions = append(g.questions, &q)
		g.byCategory[q.Category] = append(g.byCategory[q.Category], &q)
	}
	g.mu.Unlock()

	g.events.RecordSystem(domain.ActivityFileLoaded, fmt.Sprintf("Loaded %d questions", len(loaded)))
	g.logger.Info("questions loaded", slog.String("source", sourceID), slog.Int("count", len(loaded)))
	return len(loaded), nil
}

func (g *Game) load(ctx context.Context, sourceID string, format domain.SourceFormat) ([]domain.Question, error) {
	switch format {
	case domain.FormatCSV, domain.FormatJSON, domain.FormatXML:
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	if g.source == nil {
		return nil, fmt.Errorf("%w: no question source configured", domain.ErrSourceUnavailable)
	}
	loaded, err := g.source.LoadQuestions(ctx, sourceID, format)
	if err != nil {
		return nil, err
	}
	for i := range loaded {
		if err := loaded[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", sourceID, i+1, err)
		}
	}
	return loaded, nil
}

// AddContestant registers a contestant; registration order is turn order.
func (g *Game) AddContestant(name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireLocked(domain.NotStarted, "add contestant"); err != nil {
		return "", err
	}
	c := &contestant{id: uuid.NewString(), name: name}
	g.roster = append(g.roster, c)

	g.events.RecordDetailed(domain.ActorID(name), domain.ActivityEnterPlayerName, activity.Details{
		Category:   name,
		ScoreAfter: activity.Int(0),
	})
	g.broadcastLocked()
	return c.id, nil
}

// Start moves the game into play.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireLocked(domain.NotStarted, "start"); err != nil {
		return err
	}
	g.state = domain.InProgress
	g.events.RecordSystem(domain.ActivityStartGame, "Game Started")
	g.logger.Info("game started", slog.Int("contestants", len(g.roster)), slog.Int("questions", len(g.questions)))
	return nil
}

// End finishes the game. Ending an ended game does nothing.
func (g *Game) End() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == domain.Ended {
		return
	}
	g.state = domain.Ended
	g.events.RecordSystem(domain.ActivityExitGame, "Game Ended")
	g.logger.Info("game ended", slog.Bool("complete", g.completeLocked()))
	g.broadcastLocked()
}

// AvailableCategories returns, sorted, the categories with at least one unanswered question.
func (g *Game) AvailableCategories() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var categories []string
	for category, questions := range g.byCategory {
		for _, q := range questions {
			if !q.Answered {
				categories = append(categories, category)
				break
			}
		}
	}
	sort.Strings(categories)
	return categories
}

// AvailableValues returns the distinct unanswered values of category in ascending order.
func (g *Game) AvailableValues(category string) []int {
	g.mu.Lock()
	defer g.mu.Unlock()

	seen := make(map[int]struct{})
	values := []int{}
	for _, q := range g.byCategory[category] {
		if q.Answered {
			continue
		}
		if _, ok := seen[q.Value]; ok {
			continue
		}
		seen[q.Value] = struct{}{}
		values = append(values, q.Value)
	}
	sort.Ints(values)
	return values
}

// Peek returns the question the next turn on (category, value) would resolve.
func (g *Game) Peek(category string, value int) (domain.Question, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	q := g.findLocked(category, value)
	if q == nil {
		return domain.Question{}, false
	}
	return q.Clone(), true
}

// SubmitTurn plays (category, value) for the current contestant. A selection
// with no unanswered question yields a NotFound outcome and changes nothing.
// A nil policy means DefaultPolicy.
func (g *Game) SubmitTurn(category string, value int, answer string, policy Policy) (domain.TurnOutcome, error) {
	if policy == nil {
		policy = DefaultPolicy{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireLocked(domain.InProgress, "submit turn"); err != nil {
		return domain.TurnOutcome{}, err
	}
	if len(g.roster) == 0 {
		return domain.TurnOutcome{}, domain.ErrNoContestants
	}

	player := g.roster[g.turn%len(g.roster)]
	actor := domain.ActorID(player.name)

	g.events.RecordDetailed(actor, domain.ActivitySelectCategory, activity.Details{
		Category:   category,
		ScoreAfter: activity.Int(player.score),
	})

	q := g.findLocked(category, value)
	if q == nil {
		return domain.TurnOutcome{
			CorrectAnswer: domain.QuestionNotFound,
			NewScore:      player.score,
		}, nil
	}

	g.events.RecordDetailed(actor, domain.ActivitySelectQuestion, activity.Details{
		Category:   category,
		Value:      activity.Int(value),
		ScoreAfter: activity.Int(player.score),
	})

	correct := policy.Validate(answer, q.CorrectOption)
	points := -value
	result := domain.ResultIncorrect
	if correct {
		points = policy.Points(value)
		result = domain.ResultCorrect
	}

	player.score += points
	q.Answered = true
	player.turns = append(player.turns, domain.TurnRecord{
		Category:     category,
		Value:        value,
		Prompt:       q.Prompt,
		Answer:       answer,
		Correct:      correct,
		Points:       points,
		RunningTotal: player.score,
	})

	g.events.RecordDetailed(actor, domain.ActivityAnswerQuestion, activity.Details{
		Category:   category,
		Value:      activity.Int(value),
		Answer:     answer,
		Result:     result,
		ScoreAfter: activity.Int(player.score),
	})

	g.turn = (g.turn + 1) % len(g.roster)
	g.broadcastLocked()

	return domain.TurnOutcome{
		Correct:       correct,
		CorrectAnswer: q.CorrectOption,
		Points:        points,
		NewScore:      player.score,
	}, nil
}

// IsComplete reports whether every question has been answered.
func (g *Game) IsComplete() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completeLocked()
}

// CurrentContestant returns the contestant whose turn it is.
func (g *Game) CurrentContestant() (domain.Contestant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.roster) == 0 {
		return domain.Contestant{}, domain.ErrNoContestants
	}
	return g.roster[g.turn%len(g.roster)].snapshot(), nil
}

// Contestants returns snapshots in registration order.
func (g *Game) Contestants() []domain.Contestant {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.Contestant, 0, len(g.roster))
	for _, c := range g.roster {
		out = append(out, c.snapshot())
	}
	return out
}

// Questions returns copies of the bank in ingestion order.
func (g *Game) Questions() []domain.Question {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]domain.Question, 0, len(g.questions))
	for _, q := range g.questions {
		out = append(out, q.Clone())
	}
	return out
}

// Scoreboard returns the current standings.
func (g *Game) Scoreboard() domain.Scoreboard {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// WriteReport renders the summary report of the current standings.
func (g *Game) WriteReport(w io.Writer, exporter *report.Exporter, format report.Format) error {
	g.events.RecordSystem(domain.ActivityGenerateReport, "Format: "+format.String())
	return exporter.Render(w, format, g.Contestants())
}

// ExportReport writes the summary report into dir and returns its path.
func (g *Game) ExportReport(exporter *report.Exporter, dir string, format report.Format) (string, error) {
	g.events.RecordSystem(domain.ActivityGenerateReport, "Format: "+format.String())
	return exporter.Export(dir, format, g.Contestants())
}

// WriteEventLog writes the interaction log table without recording anything,
// so repeated reads return the same rows. When the log is shared, it contains
// the events of every game recorded since the last Reset.
func (g *Game) WriteEventLog(w io.Writer) error {
	return g.events.Log().WriteCSV(w)
}

// ExportEventLog records a Generate Event Log event and writes the table to path.
func (g *Game) ExportEventLog(path string) (int, error) {
	g.events.RecordSystem(domain.ActivityGenerateEventLog, "Creating process mining log")
	return g.events.Log().Export(path)
}

// Subscribe returns a channel that receives scoreboard updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan domain.Scoreboard, func()) {
	ch := make(chan domain.Scoreboard, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	initial := g.snapshotLocked()
	g.mu.Unlock()

	ch <- initial

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) requireLocked(want domain.State, op string) error {
	if g.state != want {
		return fmt.Errorf("%w: cannot %s while game is %s", domain.ErrInvalidState, op, g.state)
	}
	return nil
}

// findLocked returns the first unanswered question on (category, value) in ingestion order.
func (g *Game) findLocked(category string, value int) *domain.Question {
	for _, q := range g.byCategory[category] {
		if q.Value == value && !q.Answered {
			return q
		}
	}
	return nil
}

func (g *Game) completeLocked() bool {
	for _, q := range g.questions {
		if !q.Answered {
			return false
		}
	}
	return true
}

func (g *Game) broadcastLocked() {
	sb := g.snapshotLocked()
	for ch := range g.subscribers {
		select {
		case ch <- sb:
		default:
			// drop the stale update so a slow subscriber only sees the latest board
			select {
			case <-ch:
			default:
			}
			ch <- sb
		}
	}
}

func (g *Game) snapshotLocked() domain.Scoreboard {
	entries := make([]domain.ScoreboardEntry, 0, len(g.roster))
	for _, c := range g.roster {
		entries = append(entries, domain.ScoreboardEntry{
			ContestantID: c.id,
			Name:         c.name,
			Score:        c.score,
		})
	}
	// ties keep registration order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	sb := domain.Scoreboard{
		GameID:    g.id,
		Entries:   entries,
		Complete:  g.completeLocked(),
		UpdatedAt: g.now(),
	}
	if len(g.roster) > 0 && g.state == domain.InProgress {
		sb.Current = g.roster[g.turn%len(g.roster)].name
	}
	return sb
}
