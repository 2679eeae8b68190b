// Package ingest turns question bank documents into domain questions.
// Pure functions over readers; file access lives in FileSource.
package ingest

import (
	"fmt"
	"io"
	"strings"

	"jeopardy-service/internal/domain"
)

// Decode parses r according to format. Every decoded record is validated;
// a single bad record fails the whole document.
func Decode(r io.Reader, format domain.SourceFormat) ([]domain.Question, error) {
	var (
		questions []domain.Question
		err       error
	)
	switch format {
	case domain.FormatCSV:
		questions, err = decodeCSV(r)
	case domain.FormatJSON:
		questions, err = decodeJSON(r)
	case domain.FormatXML:
		questions, err = decodeXML(r)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedRecord, format, err)
	}

	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return questions, nil
}

func newQuestion(category string, value int, prompt string, options [4]string, correct string) domain.Question {
	opts := make(map[string]string, len(domain.OptionKeys))
	for i, key := range domain.OptionKeys {
		opts[key] = strings.TrimSpace(options[i])
	}
	return domain.Question{
		Category:      strings.TrimSpace(category),
		Value:         value,
		Prompt:        strings.TrimSpace(prompt),
		Options:       opts,
		CorrectOption: strings.ToUpper(strings.TrimSpace(correct)),
	}
}
