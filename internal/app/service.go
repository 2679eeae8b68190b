package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"jeopardy-service/internal/activity"
	"jeopardy-service/internal/domain"
)

// GameRepository abstracts where live games are kept (in-memory, Redis-marked, etc).
type GameRepository interface {
	Put(game *Game)
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
}

// GameService creates and looks up games for transports that serve many tables.
type GameService struct {
	games    GameRepository
	source   QuestionSource
	policies *PolicySet
	// shared is the log every game records into; nil gives each game its own.
	shared *activity.Log
	// retention keeps an ended game reachable for report downloads.
	retention time.Duration
}

func NewGameService(games GameRepository, source QuestionSource, policies *PolicySet) *GameService {
	if policies == nil {
		policies = NewPolicySet(nil)
	}
	return &GameService{games: games, source: source, policies: policies}
}

// WithSharedLog makes every new game record into log. Resetting it between
// games is then the caller's job.
func (s *GameService) WithSharedLog(log *activity.Log) *GameService {
	s.shared = log
	return s
}

// WithRetention sets how long an ended game stays in the repository. Zero
// forgets it as soon as it ends.
func (s *GameService) WithRetention(d time.Duration) *GameService {
	s.retention = d
	return s
}

// Create registers a new game with a fresh id.
func (s *GameService) Create(_ context.Context) *Game {
	id := "GAME_" + uuid.NewString()
	game := NewGame(id, s.source, s.shared)
	s.games.Put(game)
	slog.Info("game created", slog.String("game_id", id))
	return game
}

// Game returns the live game with id.
func (s *GameService) Game(_ context.Context, gameID string) (*Game, error) {
	game, ok := s.games.Get(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// Policy returns the validation policy callers should use for category.
func (s *GameService) Policy(category string) Policy {
	return s.policies.For(category)
}

// Play submits a turn using the configured policy for category.
func (s *GameService) Play(ctx context.Context, gameID, category string, value int, answer string) (domain.TurnOutcome, error) {
	game, err := s.Game(ctx, gameID)
	if err != nil {
		return domain.TurnOutcome{}, err
	}
	return game.SubmitTurn(category, value, answer, s.policies.For(category))
}

// End ends the game and evicts it once the retention period has passed.
func (s *GameService) End(ctx context.Context, gameID string) (*Game, error) {
	game, err := s.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	game.End()
	if s.retention <= 0 {
		s.games.Delete(gameID)
		return game, nil
	}
	time.AfterFunc(s.retention, func() {
		s.games.Delete(gameID)
		slog.Debug("game evicted", slog.String("game_id", gameID))
	})
	return game, nil
}
