package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jeopardy-service/internal/domain"
)

type jsonRecord map[string]json.RawMessage

// decodeJSON accepts either a root array of questions or an object holding
// them under "questions". Field names may be lower-case or capitalised.
func decodeJSON(r io.Reader) ([]domain.Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	data = bytes.TrimSpace(data)

	var records []jsonRecord
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	} else {
		var root jsonRecord
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		raw, ok := root.lookup("questions", "Questions")
		if !ok {
			return nil, errors.New(`no "questions" array`)
		}
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
	}

	questions := make([]domain.Question, 0, len(records))
	for i, rec := range records {
		q, err := rec.question()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r jsonRecord) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func (r jsonRecord) text(keys ...string) (string, error) {
	raw, ok := r.lookup(keys...)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: %w", keys[0], err)
	}
	return s, nil
}

func (r jsonRecord) number(keys ...string) (int, error) {
	raw, ok := r.lookup(keys...)
	if !ok {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%s: not a number", keys[0])
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", keys[0], err)
	}
	return n, nil
}

func (r jsonRecord) question() (domain.Question, error) {
	category, err := r.text("category", "Category")
	if err != nil {
		return domain.Question{}, err
	}
	value, err := r.number("value", "Value")
	if err != nil {
		return domain.Question{}, err
	}
	prompt, err := r.text("question", "Question", "questionText", "QuestionText", "prompt")
	if err != nil {
		return domain.Question{}, err
	}
	correct, err := r.text("correctAnswer", "CorrectAnswer", "correctOption")
	if err != nil {
		return domain.Question{}, err
	}

	raw, ok := r.lookup("options", "Options")
	if !ok {
		return domain.Question{}, errors.New("missing options")
	}
	var opts map[string]string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return domain.Question{}, fmt.Errorf("options: %w", err)
	}
	var options [4]string
	for i, key := range domain.OptionKeys {
		text, ok := opts[key]
		if !ok {
			return domain.Question{}, fmt.Errorf("options: missing %q", key)
		}
		options[i] = text
	}
	return newQuestion(category, value, prompt, options, correct), nil
}
