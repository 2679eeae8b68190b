package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Activity names an interaction log entry. The vocabulary is open.
type Activity string

const (
	ActivityStartGame         Activity = "Start Game"
	ActivityLoadFile          Activity = "Load File"
	ActivityFileLoaded        Activity = "File Loaded Successfully"
	ActivityLoadFileFailed    Activity = "Load File Failed"
	ActivitySelectPlayerCount Activity = "Select Player Count"
	ActivityEnterPlayerName   Activity = "Enter Player Name"
	ActivitySelectCategory    Activity = "Select Category"
	ActivitySelectQuestion    Activity = "Select Question"
	ActivityAnswerQuestion    Activity = "Answer Question"
	ActivityGenerateReport    Activity = "Generate Report"
	ActivityGenerateEventLog  Activity = "Generate Event Log"
	ActivityExitGame          Activity = "Exit Game"
)

// SystemActor is the actor id of events not caused by a contestant.
const SystemActor = "SYSTEM"

// Result labels recorded for answered questions.
const (
	ResultCorrect   = "Correct"
	ResultIncorrect = "Incorrect"
)

// LogEvent is one entry of the interaction log. Empty strings and nil
// pointers mark absent optional fields.
type LogEvent struct {
	SessionID  string
	ActorID    string
	Activity   Activity
	Timestamp  time.Time
	Category   string
	Value      *int
	Answer     string
	Result     string
	ScoreAfter *int
}

// SourceFormat is the closed set of question bank encodings.
type SourceFormat int

const (
	FormatCSV SourceFormat = iota + 1
	FormatJSON
	FormatXML
)

func (f SourceFormat) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	}
	return fmt.Sprintf("SourceFormat(%d)", int(f))
}

// ParseSourceFormat resolves a format tag such as "csv" or "JSON".
func ParseSourceFormat(tag string) (SourceFormat, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
}

// SourceFormatFromPath infers the format from a file extension.
func SourceFormatFromPath(path string) (SourceFormat, error) {
	return ParseSourceFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}
