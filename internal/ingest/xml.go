package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jeopardy-service/internal/domain"
)

// xmlQuestion carries both the lower-case and the capitalised element names
// seen in question bank files; encoding/xml matches names case-sensitively.
type xmlQuestion struct {
	Category      string      `xml:"category"`
	CategoryAlt   string      `xml:"Category"`
	Value         string      `xml:"value"`
	ValueAlt      string      `xml:"Value"`
	Prompt        string      `xml:"questionText"`
	PromptAlt     string      `xml:"QuestionText"`
	Options       *xmlOptions `xml:"options"`
	OptionsAlt    *xmlOptions `xml:"Options"`
	CorrectAnswer string      `xml:"correctAnswer"`
	CorrectAlt    string      `xml:"CorrectAnswer"`
}

type xmlOptions struct {
	A    string `xml:"A"`
	B    string `xml:"B"`
	C    string `xml:"C"`
	D    string `xml:"D"`
	AAlt string `xml:"OptionA"`
	BAlt string `xml:"OptionB"`
	CAlt string `xml:"OptionC"`
	DAlt string `xml:"OptionD"`
}

// decodeXML collects every <question> or <QuestionItem> element in document order.
func decodeXML(r io.Reader) ([]domain.Question, error) {
	dec := xml.NewDecoder(r)

	var questions []domain.Question
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || (start.Name.Local != "question" && start.Name.Local != "QuestionItem") {
			continue
		}

		var item xmlQuestion
		if err := dec.DecodeElement(&item, &start); err != nil {
			return nil, fmt.Errorf("decode %s: %w", start.Name.Local, err)
		}
		q, err := item.question()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", len(questions)+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (x xmlQuestion) question() (domain.Question, error) {
	rawValue := strings.TrimSpace(firstNonEmpty(x.Value, x.ValueAlt))
	value, err := strconv.Atoi(rawValue)
	if err != nil {
		return domain.Question{}, fmt.Errorf("value %q: %w", rawValue, err)
	}

	opts := x.Options
	if opts == nil {
		opts = x.OptionsAlt
	}
	if opts == nil {
		return domain.Question{}, errors.New("missing options")
	}

	return newQuestion(
		firstNonEmpty(x.Category, x.CategoryAlt),
		value,
		firstNonEmpty(x.Prompt, x.PromptAlt),
		[4]string{
			firstNonEmpty(opts.A, opts.AAlt),
			firstNonEmpty(opts.B, opts.BAlt),
			firstNonEmpty(opts.C, opts.CAlt),
			firstNonEmpty(opts.D, opts.DAlt),
		},
		firstNonEmpty(x.CorrectAnswer, x.CorrectAlt),
	), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
