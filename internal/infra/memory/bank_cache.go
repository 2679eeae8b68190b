package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"jeopardy-service/internal/app"
	"jeopardy-service/internal/domain"
)

// BankCache caches decoded question banks with TTL to avoid re-reading sources.
type BankCache struct {
	loader app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewBankCache(loader app.QuestionSource, ttl time.Duration) *BankCache {
	return &BankCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

// LoadQuestions returns copies of the cached bank, filling the cache on a miss.
// Concurrent misses for the same key share one load.
func (c *BankCache) LoadQuestions(ctx context.Context, sourceID string, format domain.SourceFormat) ([]domain.Question, error) {
	key := format.String() + ":" + sourceID
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return cloneBank(entry.questions), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadQuestions(ctx, sourceID, format)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[key] = cachedBank{
			questions: cloneBank(questions),
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneBank(result.([]domain.Question)), nil
}

// Invalidate drops the cached bank for sourceID in format.
func (c *BankCache) Invalidate(sourceID string, format domain.SourceFormat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, format.String()+":"+sourceID)
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticSource is a question source backed by an in-memory map (useful for tests/demos).
// The format argument is ignored.
type StaticSource struct {
	banks map[string][]domain.Question
}

func NewStaticSource(banks map[string][]domain.Question) *StaticSource {
	return &StaticSource{banks: banks}
}

func (s *StaticSource) LoadQuestions(_ context.Context, sourceID string, _ domain.SourceFormat) ([]domain.Question, error) {
	if bank, ok := s.banks[sourceID]; ok {
		return cloneBank(bank), nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, sourceID)
}

func cloneBank(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i := range questions {
		out[i] = questions[i].Clone()
	}
	return out
}
