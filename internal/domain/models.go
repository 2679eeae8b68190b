package domain

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
	"time"
)

// OptionKeys are the option letters every question carries.
var OptionKeys = []string{"A", "B", "C", "D"}

// QuestionNotFound is the correct-answer text of a turn that matched no unanswered question.
const QuestionNotFound = "Question not found"

// Question is one trivia item of a question bank.
type Question struct {
	Category      string            `json:"category"`
	Value         int               `json:"value"`
	Prompt        string            `json:"prompt"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correctOption"`
	Answered      bool              `json:"answered"`
}

// Validate checks the fields every source format must provide.
func (q Question) Validate() error {
	switch {
	case strings.TrimSpace(q.Category) == "":
		return fmt.Errorf("%w: missing category", ErrMalformedRecord)
	case q.Value <= 0:
		return fmt.Errorf("%w: %s: value must be positive, got %d", ErrMalformedRecord, q.Category, q.Value)
	case strings.TrimSpace(q.Prompt) == "":
		return fmt.Errorf("%w: %s/%d: missing prompt", ErrMalformedRecord, q.Category, q.Value)
	}
	for _, key := range OptionKeys {
		if strings.TrimSpace(q.Options[key]) == "" {
			return fmt.Errorf("%w: %s/%d: missing option %s", ErrMalformedRecord, q.Category, q.Value, key)
		}
	}
	if _, ok := q.Options[q.CorrectOption]; !ok {
		return fmt.Errorf("%w: %s/%d: correct option %q is not an option key", ErrMalformedRecord, q.Category, q.Value, q.CorrectOption)
	}
	return nil
}

// Clone returns a copy that shares no mutable state with q.
func (q Question) Clone() Question {
	q.Options = maps.Clone(q.Options)
	return q
}

// TurnRecord is the immutable snapshot of one resolved turn.
type TurnRecord struct {
	Category     string `json:"category"`
	Value        int    `json:"value"`
	Prompt       string `json:"prompt"`
	Answer       string `json:"answer"`
	Correct      bool   `json:"correct"`
	Points       int    `json:"points"`
	RunningTotal int    `json:"runningTotal"`
}

// Contestant is a read-only view of a registered player and their history.
type Contestant struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Score int          `json:"score"`
	Turns []TurnRecord `json:"turns"`
}

var whitespace = regexp.MustCompile(`\s+`)

// ActorID is the identifier used for the contestant in the interaction log.
func (c Contestant) ActorID() string {
	return ActorID(c.Name)
}

// ActorID normalizes a display name into a log actor identifier.
func ActorID(name string) string {
	return strings.ToUpper(whitespace.ReplaceAllString(name, "_"))
}

// TurnOutcome is what a caller learns from submitting a turn.
type TurnOutcome struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Points        int    `json:"points"`
	NewScore      int    `json:"newScore"`
}

// NotFound reports whether the turn matched no unanswered question.
func (o TurnOutcome) NotFound() bool {
	return o.CorrectAnswer == QuestionNotFound
}

// State is the lifecycle of a game.
type State int

const (
	NotStarted State = iota
	InProgress
	Ended
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case InProgress:
		return "in progress"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ScoreboardEntry is a snapshot-friendly view of a contestant's standing.
type ScoreboardEntry struct {
	ContestantID string `json:"contestantId"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
}

// Scoreboard captures the ranked standings of a game.
type Scoreboard struct {
	GameID    string            `json:"gameId"`
	Entries   []ScoreboardEntry `json:"entries"`
	Current   string            `json:"current,omitempty"`
	Complete  bool              `json:"complete"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
