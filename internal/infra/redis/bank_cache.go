package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
)

// BankCache caches decoded question banks in Redis and falls back to a loader on a miss.
// Banks are stored as JSON: SET bank:{format}:{sourceID} [...questions] EX ttl
type BankCache struct {
	client *redis.Client
	loader app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankCache(client *redis.Client, loader app.QuestionSource, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) LoadQuestions(ctx context.Context, sourceID string, format domain.SourceFormat) ([]domain.Question, error) {
	key := c.key(sourceID, format)

	if questions, ok := c.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadQuestions(ctx, sourceID, format)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err(); err != nil {
			slog.Warn("bank cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}

	// every caller gets its own copy
	questions := result.([]domain.Question)
	out := make([]domain.Question, len(questions))
	for i := range questions {
		out[i] = questions[i].Clone()
	}
	return out, nil
}

// Invalidate drops the cached bank for sourceID in format.
func (c *BankCache) Invalidate(ctx context.Context, sourceID string, format domain.SourceFormat) error {
	return c.client.Del(ctx, c.key(sourceID, format)).Err()
}

func (c *BankCache) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("bank cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		slog.Warn("bank cache entry corrupt", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return questions, true
}

func (c *BankCache) key(sourceID string, format domain.SourceFormat) string {
	return "bank:" + format.String() + ":" + sourceID
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
