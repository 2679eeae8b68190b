package postgres

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"jeopardy-service/internal/domain"
	"jeopardy-service/internal/ingest"
)

// QuestionBank is a raw question file stored for later play.
type QuestionBank struct {
	bun.BaseModel `bun:"table:question_banks"`

	ID        string    `bun:"id,pk"`
	Format    string    `bun:"format,pk"`
	Data      []byte    `bun:"data,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// BankStore writes question banks through bun.
type BankStore struct {
	db *bun.DB
}

func NewBankStore(db *bun.DB) *BankStore {
	return &BankStore{db: db}
}

// Import validates data with the decoder of format and upserts it under id.
// It returns the number of questions the bank holds.
func (s *BankStore) Import(ctx context.Context, id string, format domain.SourceFormat, data []byte) (int, error) {
	questions, err := ingest.Decode(bytes.NewReader(data), format)
	if err != nil {
		return 0, fmt.Errorf("bank %s: %w", id, err)
	}

	bank := &QuestionBank{ID: id, Format: format.String(), Data: data}
	_, err = s.db.NewInsert().
		Model(bank).
		On("CONFLICT (id, format) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("created_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("import bank %s: %w", id, err)
	}
	return len(questions), nil
}

// List returns stored banks, newest first, without their data.
func (s *BankStore) List(ctx context.Context) ([]QuestionBank, error) {
	var banks []QuestionBank
	err := s.db.NewSelect().
		Model(&banks).
		Column("id", "format", "created_at").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return banks, nil
}
