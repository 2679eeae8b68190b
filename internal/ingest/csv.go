package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"jeopardy-service/internal/domain"
)

// csvColumns is category, value, prompt, options A-D and the correct letter.
const csvColumns = 8

// decodeCSV reads rows of category,value,prompt,A,B,C,D,correct. A leading
// header row whose first cell is "Category" is skipped, and so are rows with
// fewer than eight columns.
func decodeCSV(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable column count
	reader.TrimLeadingSpace = true

	var questions []domain.Question
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "category") {
				continue
			}
		}
		if len(record) < csvColumns {
			continue
		}

		line, _ := reader.FieldPos(0)
		value, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: value %q: %w", line, record[1], err)
		}
		questions = append(questions, newQuestion(
			record[0], value, record[2],
			[4]string{record[3], record[4], record[5], record[6]},
			record[7],
		))
	}
	return questions, nil
}
