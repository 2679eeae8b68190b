package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"jeopardy-service/internal/activity"
	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/infra/memory"
	"jeopardy-service/internal/report"
)

func options() map[string]string {
	return map[string]string{"A": "x", "B": "y", "C": "z", "D": "w"}
}

func question(category string, value int, prompt, correct string) domain.Question {
	return domain.Question{Category: category, Value: value, Prompt: prompt, Options: options(), CorrectOption: correct}
}

func newTestSource() *memory.StaticSource {
	return memory.NewStaticSource(map[string][]domain.Question{
		"two": {
			question("Variables", 100, "Q1", "B"),
			question("Variables", 200, "Q2", "A"),
		},
		"three": {
			question("Variables", 100, "Q1", "B"),
			question("Loops", 300, "Q3", "C"),
			question("Loops", 100, "Q4", "D"),
		},
		"dupes": {
			question("Loops", 100, "first", "A"),
			question("Loops", 100, "second", "B"),
		},
		"broken": {
			{Category: "Loops", Value: 100, Prompt: "Q", Options: options(), CorrectOption: "E"},
		},
	})
}

// newStartedGame ingests bank, registers names and starts the game.
func newStartedGame(t *testing.T, bank string, names ...string) (*app.Game, *activity.Log) {
	t.Helper()
	log := activity.NewLog()
	game := app.NewGame("GAME_1", newTestSource(), log)
	if _, err := game.IngestQuestions(context.Background(), bank, domain.FormatJSON); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	for _, name := range names {
		if _, err := game.AddContestant(name); err != nil {
			t.Fatalf("add contestant failed: %v", err)
		}
	}
	if err := game.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return game, log
}

func mustSubmit(t *testing.T, game *app.Game, category string, value int, answer string) domain.TurnOutcome {
	t.Helper()
	outcome, err := game.SubmitTurn(category, value, answer, app.DefaultPolicy{})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return outcome
}

func TestCorrectAnswerScoresAndAdvancesTurn(t *testing.T) {
	game, _ := newStartedGame(t, "two", "Alice", "Bob")

	outcome := mustSubmit(t, game, "Variables", 100, "B")
	if !outcome.Correct || outcome.Points != 100 || outcome.NewScore != 100 || outcome.CorrectAnswer != "B" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	current, err := game.CurrentContestant()
	if err != nil {
		t.Fatalf("current contestant: %v", err)
	}
	if current.Name != "Bob" {
		t.Fatalf("expected Bob to play next, got %s", current.Name)
	}

	outcome = mustSubmit(t, game, "Variables", 200, "a")
	if !outcome.Correct || outcome.NewScore != 200 {
		t.Fatalf("expected Bob to score 200, got %+v", outcome)
	}
	players := game.Contestants()
	if players[0].Score != 100 || players[1].Score != 200 {
		t.Fatalf("unexpected scores %+v", players)
	}
}

func TestAnsweredQuestionIsNotFound(t *testing.T) {
	game, log := newStartedGame(t, "two", "Alice", "Bob")
	mustSubmit(t, game, "Variables", 100, "B")
	before := game.Contestants()
	eventsBefore := log.Len()

	outcome := mustSubmit(t, game, "Variables", 100, "B")
	if !outcome.NotFound() || outcome.Correct || outcome.Points != 0 || outcome.CorrectAnswer != "Question not found" {
		t.Fatalf("expected not-found outcome, got %+v", outcome)
	}
	if outcome.NewScore != 0 {
		t.Fatalf("expected Bob's unchanged score, got %d", outcome.NewScore)
	}
	if !reflect.DeepEqual(before, game.Contestants()) {
		t.Fatalf("expected contestants unchanged")
	}
	current, _ := game.CurrentContestant()
	if current.Name != "Bob" {
		t.Fatalf("expected turn order not advanced, current is %s", current.Name)
	}

	// only the category selection is logged before the lookup fails
	events := log.Events()[eventsBefore:]
	if len(events) != 1 || events[0].Activity != domain.ActivitySelectCategory {
		t.Fatalf("expected a single Select Category event, got %+v", events)
	}
}

func TestWrongAnswerPenaltyIsRawValue(t *testing.T) {
	game, _ := newStartedGame(t, "three", "Alice")

	outcome, err := game.SubmitTurn("Loops", 300, "A", app.MultiplierPolicy{Factor: 2})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Correct || outcome.Points != -300 || outcome.NewScore != -300 || outcome.CorrectAnswer != "C" {
		t.Fatalf("expected -300 penalty, got %+v", outcome)
	}

	outcome, err = game.SubmitTurn("Loops", 100, "d", app.MultiplierPolicy{Factor: 2})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if outcome.Points != 200 || outcome.NewScore != -100 {
		t.Fatalf("expected policy-adjusted award, got %+v", outcome)
	}
}

func TestNilPolicyUsesDefault(t *testing.T) {
	game, _ := newStartedGame(t, "two", "Alice")
	outcome, err := game.SubmitTurn("Variables", 100, " b ", nil)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !outcome.Correct {
		t.Fatalf("expected default policy to accept %q", " b ")
	}
}

func TestIsCompleteTransitions(t *testing.T) {
	game, _ := newStartedGame(t, "two", "Alice", "Bob")
	if game.IsComplete() {
		t.Fatalf("expected incomplete game")
	}
	mustSubmit(t, game, "Variables", 100, "B")
	if game.IsComplete() {
		t.Fatalf("expected incomplete with one of two answered")
	}
	mustSubmit(t, game, "Variables", 200, "C")
	if !game.IsComplete() {
		t.Fatalf("expected complete after both answered")
	}

	// completion is advisory; play is still accepted until End
	outcome := mustSubmit(t, game, "Variables", 200, "A")
	if !outcome.NotFound() || !game.IsComplete() {
		t.Fatalf("expected completion to stay true, got %+v", outcome)
	}
}

func TestStrictAlternation(t *testing.T) {
	game, _ := newStartedGame(t, "three", "A", "B")

	var players []string
	for _, pick := range []struct {
		category string
		value    int
	}{{"Variables", 100}, {"Loops", 300}, {"Loops", 100}} {
		current, _ := game.CurrentContestant()
		players = append(players, current.Name)
		mustSubmit(t, game, pick.category, pick.value, "A")
	}
	if !reflect.DeepEqual(players, []string{"A", "B", "A"}) {
		t.Fatalf("expected A, B, A got %v", players)
	}
	cs := game.Contestants()
	if len(cs[0].Turns) != 2 || len(cs[1].Turns) != 1 {
		t.Fatalf("expected 2 and 1 turns, got %d and %d", len(cs[0].Turns), len(cs[1].Turns))
	}
}

func TestScoreAndRunningTotalsStayConsistent(t *testing.T) {
	game, _ := newStartedGame(t, "three", "Alice", "Bob", "Carol")
	answers := []string{"B", "A", "D"}
	picks := []struct {
		category string
		value    int
	}{{"Variables", 100}, {"Loops", 300}, {"Loops", 100}}
	for i, pick := range picks {
		mustSubmit(t, game, pick.category, pick.value, answers[i])
		for _, c := range game.Contestants() {
			sum := 0
			for _, turn := range c.Turns {
				sum += turn.Points
				if turn.RunningTotal != sum {
					t.Fatalf("%s: running total %d, want %d", c.Name, turn.RunningTotal, sum)
				}
			}
			if c.Score != sum {
				t.Fatalf("%s: score %d, want %d", c.Name, c.Score, sum)
			}
		}
	}
}

func TestDuplicateRecordsResolveInIngestionOrder(t *testing.T) {
	game, _ := newStartedGame(t, "dupes", "Alice")

	q, ok := game.Peek("Loops", 100)
	if !ok || q.Prompt != "first" {
		t.Fatalf("expected first record, got %+v", q)
	}
	mustSubmit(t, game, "Loops", 100, "A")
	if values := game.AvailableValues("Loops"); !reflect.DeepEqual(values, []int{100}) {
		t.Fatalf("expected the duplicate still available, got %v", values)
	}
	q, _ = game.Peek("Loops", 100)
	if q.Prompt != "second" {
		t.Fatalf("expected second record next, got %q", q.Prompt)
	}
}

func TestAvailabilityQueries(t *testing.T) {
	game, _ := newStartedGame(t, "three", "Alice")

	if got := game.AvailableCategories(); !reflect.DeepEqual(got, []string{"Loops", "Variables"}) {
		t.Fatalf("unexpected categories %v", got)
	}
	if got := game.AvailableValues("Loops"); !reflect.DeepEqual(got, []int{100, 300}) {
		t.Fatalf("expected ascending values, got %v", got)
	}
	if !reflect.DeepEqual(game.AvailableCategories(), game.AvailableCategories()) {
		t.Fatalf("expected repeated queries to agree")
	}

	mustSubmit(t, game, "Variables", 100, "B")
	if got := game.AvailableCategories(); !reflect.DeepEqual(got, []string{"Loops"}) {
		t.Fatalf("expected exhausted category to disappear, got %v", got)
	}
	if got := game.AvailableValues("Variables"); len(got) != 0 {
		t.Fatalf("expected no values, got %v", got)
	}
	if got := game.AvailableValues("Unknown"); len(got) != 0 {
		t.Fatalf("expected no values for unknown category, got %v", got)
	}
}

func TestStateMachine(t *testing.T) {
	game := app.NewGame("GAME_1", newTestSource(), nil)

	if _, err := game.SubmitTurn("Variables", 100, "B", nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state before start, got %v", err)
	}
	if err := game.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := game.Start(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected second start to fail, got %v", err)
	}
	if _, err := game.AddContestant("Late"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected registration after start to fail, got %v", err)
	}
	if _, err := game.IngestQuestions(context.Background(), "two", domain.FormatJSON); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ingest after start to fail, got %v", err)
	}
	if _, err := game.SubmitTurn("Variables", 100, "B", nil); !errors.Is(err, domain.ErrNoContestants) {
		t.Fatalf("expected no contestants, got %v", err)
	}

	game.End()
	game.End()
	if game.State() != domain.Ended {
		t.Fatalf("expected ended, got %s", game.State())
	}
	if _, err := game.SubmitTurn("Variables", 100, "B", nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after end, got %v", err)
	}

	exits := 0
	for _, e := range game.Events().Log().Events() {
		if e.Activity == domain.ActivityExitGame {
			exits++
		}
	}
	if exits != 1 {
		t.Fatalf("expected one Exit Game event, got %d", exits)
	}
}

func TestCurrentContestantEmptyRoster(t *testing.T) {
	game := app.NewGame("GAME_1", nil, nil)
	if _, err := game.CurrentContestant(); !errors.Is(err, domain.ErrNoContestants) {
		t.Fatalf("expected no contestants, got %v", err)
	}
}

func TestDuplicateNamesTrackedIndependently(t *testing.T) {
	game, _ := newStartedGame(t, "two", "Sam", "Sam")
	mustSubmit(t, game, "Variables", 100, "B")

	cs := game.Contestants()
	if cs[0].ID == cs[1].ID {
		t.Fatalf("expected distinct ids")
	}
	if cs[0].Score != 100 || cs[1].Score != 0 {
		t.Fatalf("expected independent scores, got %+v", cs)
	}
}

func TestFailedIngestKeepsEarlierRecords(t *testing.T) {
	log := activity.NewLog()
	game := app.NewGame("GAME_1", newTestSource(), log)

	n, err := game.IngestQuestions(context.Background(), "two", domain.FormatCSV)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 records, got %d, %v", n, err)
	}
	if _, err := game.IngestQuestions(context.Background(), "missing", domain.FormatCSV); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	if _, err := game.IngestQuestions(context.Background(), "broken", domain.FormatCSV); !errors.Is(err, domain.ErrMalformedRecord) {
		t.Fatalf("expected malformed record, got %v", err)
	}
	if _, err := game.IngestQuestions(context.Background(), "two", domain.SourceFormat(42)); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if got := len(game.Questions()); got != 2 {
		t.Fatalf("expected 2 questions kept, got %d", got)
	}

	var activities []domain.Activity
	for _, e := range log.Events() {
		activities = append(activities, e.Activity)
	}
	want := []domain.Activity{
		domain.ActivityLoadFile, domain.ActivityFileLoaded,
		domain.ActivityLoadFile, domain.ActivityLoadFileFailed,
		domain.ActivityLoadFile, domain.ActivityLoadFileFailed,
		domain.ActivityLoadFile, domain.ActivityLoadFileFailed,
	}
	if !reflect.DeepEqual(activities, want) {
		t.Fatalf("unexpected activities %v", activities)
	}
}

func TestQuestionsAreSnapshots(t *testing.T) {
	game, _ := newStartedGame(t, "two", "Alice")
	qs := game.Questions()
	qs[0].Answered = true
	qs[0].Options["B"] = "tampered"

	if game.IsComplete() {
		t.Fatalf("snapshot mutation leaked into the bank")
	}
	q, _ := game.Peek("Variables", 100)
	if q.Options["B"] != "y" {
		t.Fatalf("snapshot mutation leaked into options")
	}
}

func TestTurnLogsEventsInOrder(t *testing.T) {
	game, log := newStartedGame(t, "two", "Mary Ann")
	mustSubmit(t, game, "Variables", 200, "C")
	game.End()

	var buf bytes.Buffer
	if err := log.WriteCSV(&buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// header, load x2, player, start, select category, select question, answer, exit
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), buf.String())
	}
	answer := strings.Split(lines[7], ",")
	if answer[0] != "GAME_1" || answer[1] != "MARY_ANN" || answer[2] != "Answer Question" {
		t.Fatalf("unexpected answer row %q", lines[7])
	}
	if answer[4] != "Variables" || answer[5] != "200" || answer[6] != "C" || answer[7] != "Incorrect" || answer[8] != "-200" {
		t.Fatalf("unexpected answer details %q", lines[7])
	}
	if log.Len() != len(lines)-1 {
		t.Fatalf("expected one row per event")
	}
}

func TestWriteReportAndEventLog(t *testing.T) {
	game, log := newStartedGame(t, "two", "Alice", "Bob")
	mustSubmit(t, game, "Variables", 100, "B")
	mustSubmit(t, game, "Variables", 200, "B")
	game.End()

	exporter := report.NewExporterWithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) })
	var out bytes.Buffer
	if err := game.WriteReport(&out, exporter, report.FormatText); err != nil {
		t.Fatalf("write report: %v", err)
	}
	if !strings.Contains(out.String(), "1. Alice: 100 points\n2. Bob: -200 points") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}

	out.Reset()
	if err := game.WriteEventLog(&out); err != nil {
		t.Fatalf("write event log: %v", err)
	}
	if !strings.Contains(out.String(), "Generate Report") {
		t.Fatalf("expected report activity, got:\n%s", out.String())
	}
	if got := strings.Count(out.String(), "\n"); got != log.Len()+1 {
		t.Fatalf("expected %d lines, got %d", log.Len()+1, got)
	}

	var again bytes.Buffer
	if err := game.WriteEventLog(&again); err != nil {
		t.Fatalf("write event log: %v", err)
	}
	if again.String() != out.String() {
		t.Fatalf("repeated reads changed the log:\n%s\nthen\n%s", out.String(), again.String())
	}

	path := filepath.Join(t.TempDir(), "game_event_log.csv")
	n, err := game.ExportEventLog(path)
	if err != nil {
		t.Fatalf("export event log: %v", err)
	}
	if n != log.Len() {
		t.Fatalf("expected %d rows exported, got %d", log.Len(), n)
	}
	exported, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(exported), "Generate Event Log") {
		t.Fatalf("expected export to record itself, got:\n%s", exported)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	game, _ := newStartedGame(t, "two", "Alice", "Bob")
	ch, cancel := game.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.Current != "Alice" || len(initial.Entries) != 2 {
		t.Fatalf("unexpected initial board %+v", initial)
	}

	mustSubmit(t, game, "Variables", 100, "B")
	update := <-ch
	if update.Entries[0].Name != "Alice" || update.Entries[0].Score != 100 || update.Current != "Bob" {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestServicePlayUsesCategoryPolicy(t *testing.T) {
	ctx := context.Background()
	policies := app.NewPolicySet(nil).Set("Variables", app.MultiplierPolicy{Factor: 3})
	service := app.NewGameService(memory.NewGameStore(), newTestSource(), policies)

	game := service.Create(ctx)
	if _, err := game.IngestQuestions(ctx, "two", domain.FormatJSON); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := game.AddContestant("Alice"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := game.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	outcome, err := service.Play(ctx, game.ID(), "Variables", 100, "B")
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if outcome.Points != 300 {
		t.Fatalf("expected tripled points, got %d", outcome.Points)
	}

	if _, err := service.End(ctx, game.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if game.State() != domain.Ended {
		t.Fatalf("expected game to be ended")
	}
	if _, err := service.Play(ctx, game.ID(), "Variables", 200, "A"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}

func TestServiceEndEvictsAfterRetention(t *testing.T) {
	ctx := context.Background()
	store := memory.NewGameStore()
	service := app.NewGameService(store, newTestSource(), nil).WithRetention(20 * time.Millisecond)

	game := service.Create(ctx)
	if _, err := service.End(ctx, game.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, ok := store.Get(game.ID()); !ok {
		t.Fatalf("expected ended game kept during retention")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := store.Get(game.ID()); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected ended game evicted after retention")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := service.End(ctx, game.ID()); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected game not found, got %v", err)
	}
}
