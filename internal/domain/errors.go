package domain

import "errors"

var (
	// ErrInvalidState is returned when an operation is called outside its game state.
	ErrInvalidState = errors.New("invalid game state")
	// ErrNoContestants is returned when a turn is requested with an empty roster.
	ErrNoContestants = errors.New("no contestants registered")
	// ErrSourceUnavailable indicates a question source could not be read.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrMalformedRecord indicates a question source was readable but its content was not.
	ErrMalformedRecord = errors.New("malformed question record")
	// ErrUnsupportedFormat is returned for format tags outside the known set.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrGameNotFound is returned when a game id is unknown to the service.
	ErrGameNotFound = errors.New("game not found")
)
