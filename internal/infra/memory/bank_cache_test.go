package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
)

func TestBankCacheCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionSource: NewStaticSource(map[string][]domain.Question{
			"bank-1": sampleBank(),
		}),
	}
	cache := NewBankCache(loader, time.Minute)

	if _, err := cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON); err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON); err != nil {
		t.Fatalf("load bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	// a different format is a different cache entry
	if _, err := cache.LoadQuestions(context.Background(), "bank-1", domain.FormatCSV); err != nil {
		t.Fatalf("load bank 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected a second load for another format, got %d", loader.calls)
	}
}

func TestBankCacheReturnsIndependentCopies(t *testing.T) {
	cache := NewBankCache(NewStaticSource(map[string][]domain.Question{"bank-1": sampleBank()}), time.Minute)

	first, err := cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	first[0].Answered = true
	first[0].Options["A"] = "changed"

	second, _ := cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON)
	if second[0].Answered || second[0].Options["A"] != "3" {
		t.Fatalf("expected cached bank to be untouched, got %+v", second[0])
	}
}

func TestBankCacheExpiresAndInvalidates(t *testing.T) {
	loader := &countingLoader{QuestionSource: NewStaticSource(map[string][]domain.Question{"bank-1": sampleBank()})}
	cache := NewBankCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON)
	now = now.Add(2 * time.Minute)
	_, _ = cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, got %d calls", loader.calls)
	}

	cache.Invalidate("bank-1", domain.FormatJSON)
	_, _ = cache.LoadQuestions(context.Background(), "bank-1", domain.FormatJSON)
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, got %d calls", loader.calls)
	}
}

func TestBankCacheDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{QuestionSource: NewStaticSource(nil)}
	cache := NewBankCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := cache.LoadQuestions(context.Background(), "missing", domain.FormatCSV)
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Fatalf("expected source unavailable, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected every miss to reach the loader, got %d", loader.calls)
	}
}

type countingLoader struct {
	app.QuestionSource
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, sourceID string, format domain.SourceFormat) ([]domain.Question, error) {
	l.calls++
	return l.QuestionSource.LoadQuestions(ctx, sourceID, format)
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{
			Category:      "Arithmetic",
			Value:         100,
			Prompt:        "What is 2 + 2?",
			Options:       map[string]string{"A": "3", "B": "4", "C": "5", "D": "22"},
			CorrectOption: "B",
		},
	}
}
