// Package activity keeps the chronological interaction log of game sessions
// and exports it as a delimited table.
//
// A Log is never reset implicitly. Callers that reuse one Log across games
// must call Reset themselves, otherwise the export of the later game also
// contains the events of the earlier ones.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"jeopardy-service/internal/domain"
)

// TimestampLayout is the local date-time layout of exported timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// Header is the column row of the exported table.
var Header = []string{
	"Case_ID", "Player_ID", "Activity", "Timestamp", "Category",
	"Question_Value", "Answer_Given", "Result", "Score_After_Play",
}

// Details carries the optional fields of a detailed event.
type Details struct {
	Category   string
	Value      *int
	Answer     string
	Result     string
	ScoreAfter *int
}

// Log is an append-only, mutex-guarded list of events.
type Log struct {
	mu        sync.Mutex
	now       func() time.Time
	sessionID string
	events    []domain.LogEvent
}

func NewLog() *Log {
	return NewLogWithClock(time.Now)
}

// NewLogWithClock allows deterministic timestamps in tests.
func NewLogWithClock(now func() time.Time) *Log {
	return &Log{now: now}
}

// SetSessionID scopes subsequent unscoped events. Prior events are kept.
func (l *Log) SetSessionID(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessionID = id
}

func (l *Log) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// RecordDetailed appends an event for actor under the current session id.
func (l *Log) RecordDetailed(actor string, activity domain.Activity, d Details) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendLocked(l.sessionID, actor, activity, d)
}

// RecordSystem appends a SYSTEM event; detail is stored in the category column.
func (l *Log) RecordSystem(activity domain.Activity, detail string) {
	l.RecordDetailed(domain.SystemActor, activity, Details{Category: detail})
}

func (l *Log) appendLocked(sessionID, actor string, activity domain.Activity, d Details) {
	l.events = append(l.events, domain.LogEvent{
		SessionID:  sessionID,
		ActorID:    actor,
		Activity:   activity,
		Timestamp:  l.now(),
		Category:   d.Category,
		Value:      copyInt(d.Value),
		Answer:     d.Answer,
		Result:     d.Result,
		ScoreAfter: copyInt(d.ScoreAfter),
	})
}

// Events returns a copy of the recorded events in insertion order.
func (l *Log) Events() []domain.LogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.LogEvent, len(l.events))
	for i, e := range l.events {
		e.Value = copyInt(e.Value)
		e.ScoreAfter = copyInt(e.ScoreAfter)
		out[i] = e
	}
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Reset drops every recorded event.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// WriteCSV writes the header and one row per event.
func (l *Log) WriteCSV(w io.Writer) error {
	events := l.Events()

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range events {
		if err := cw.Write(row(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes the table to path, creating missing directories. It returns
// the number of data rows written.
func (l *Log) Export(path string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create log file: %w", err)
	}
	n := l.Len()
	if err := l.WriteCSV(f); err != nil {
		f.Close()
		return 0, fmt.Errorf("write log: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close log: %w", err)
	}
	return n, nil
}

// Scope returns a recorder bound to sessionID. Games sharing one Log record
// through their own scope so they never race on SetSessionID.
func (l *Log) Scope(sessionID string) *Scope {
	return &Scope{log: l, sessionID: sessionID}
}

// Scope records into a Log under a fixed session id.
type Scope struct {
	log       *Log
	sessionID string
}

func (s *Scope) SessionID() string { return s.sessionID }

// Log returns the underlying log.
func (s *Scope) Log() *Log { return s.log }

func (s *Scope) RecordDetailed(actor string, activity domain.Activity, d Details) {
	s.log.mu.Lock()
	defer s.log.mu.Unlock()
	s.log.appendLocked(s.sessionID, actor, activity, d)
}

func (s *Scope) RecordSystem(activity domain.Activity, detail string) {
	s.RecordDetailed(domain.SystemActor, activity, Details{Category: detail})
}

func row(e domain.LogEvent) []string {
	return []string{
		e.SessionID,
		e.ActorID,
		string(e.Activity),
		e.Timestamp.Local().Format(TimestampLayout),
		e.Category,
		optInt(e.Value),
		e.Answer,
		e.Result,
		optInt(e.ScoreAfter),
	}
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Int is a helper for the optional integer fields of Details.
func Int(v int) *int { return &v }
