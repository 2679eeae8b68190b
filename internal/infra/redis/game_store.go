package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"jeopardy-service/internal/app"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Notes:
//   - Games stay in a local map; they own turn order and their subscribers.
//   - Redis marks game liveness so other instances can see which tables are open.
//   - The marker's ttl is an idle timeout: reads extend it, and a game whose
//     marker expired is evicted on the next Get or Sweep.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID()] = game
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(game.ID()), "1", s.ttl).Err()
}

// Get returns the local game while its liveness key exists and extends the
// key's ttl. A game whose key has expired is dropped.
func (s *GameStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	game, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	alive, err := s.client.Expire(context.Background(), s.key(gameID), s.ttl).Result()
	if err == nil && !alive {
		s.forget(gameID)
		return nil, false
	}
	return game, true
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return
	}
	delete(s.games, gameID)
	_ = s.client.Del(context.Background(), s.key(gameID)).Err()
}

func (s *GameStore) forget(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
}

// Sweep drops every local game whose liveness key has expired and returns
// how many were dropped. Redis errors leave the game in place.
func (s *GameStore) Sweep(ctx context.Context) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	dropped := 0
	for _, id := range ids {
		live, err := s.Live(ctx, id)
		if err != nil || live {
			continue
		}
		s.forget(id)
		dropped++
	}
	return dropped
}

// Live reports whether any instance still marks gameID as open.
func (s *GameStore) Live(ctx context.Context, gameID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(gameID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GameStore) key(gameID string) string {
	return "game:session:" + gameID
}
