package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/ingest"
)

// BankLoader loads imported question banks from Postgres and decodes them
// with the decoder of the requested format.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadQuestions(ctx context.Context, bankID string, format domain.SourceFormat) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT data FROM question_banks WHERE id=$1 AND format=$2`,
		bankID, format.String(),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: bank %s (%s) not imported", domain.ErrSourceUnavailable, bankID, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load bank: %v", domain.ErrSourceUnavailable, err)
	}
	questions, err := ingest.Decode(bytes.NewReader(raw), format)
	if err != nil {
		return nil, fmt.Errorf("bank %s: %w", bankID, err)
	}
	return questions, nil
}
