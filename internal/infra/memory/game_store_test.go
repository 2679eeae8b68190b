package memory

import (
	"testing"

	"jeopardy-service/internal/app"
)

func TestGameStoreLifecycle(t *testing.T) {
	store := NewGameStore()

	game := app.NewGame("game-1", nil, nil)
	store.Put(game)
	got, ok := store.Get("game-1")
	if !ok {
		t.Fatalf("expected game present")
	}
	if got != game {
		t.Fatalf("expected the stored game back")
	}

	store.Delete("game-1")
	if _, ok := store.Get("game-1"); ok {
		t.Fatalf("expected game removed")
	}
}
