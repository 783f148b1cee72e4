package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("Missing Key", func(t *testing.T) {
		v, err := store.Get(ctx, "nope")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v != "" {
			t.Errorf("expected empty value, got %q", v)
		}
	})

	t.Run("Set And Overwrite", func(t *testing.T) {
		if err := store.Set(ctx, KeyAccessToken, "a1"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		if err := store.Set(ctx, KeyAccessToken, "a2"); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		if got := mustGet(t, store, KeyAccessToken); got != "a2" {
			t.Errorf("expected a2, got %q", got)
		}
	})

	t.Run("Pair", func(t *testing.T) {
		if err := SavePair(ctx, store, TokenPair{AccessToken: "a3", RefreshToken: "r3"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := SavePair(ctx, store, TokenPair{AccessToken: "a4"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		pair, err := LoadPair(ctx, store)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if pair.AccessToken != "a4" || pair.RefreshToken != "r3" {
			t.Errorf("expected a4/r3, got %+v", pair)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		state := NewState("a4")
		if err := Logout(ctx, store, state); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		pair, _ := LoadPair(ctx, store)
		if pair != (TokenPair{}) {
			t.Errorf("expected cleared pair, got %+v", pair)
		}
		if state.Authenticated() {
			t.Error("expected state to be unauthenticated")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "spotx.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)

	t.Run("Delete Without Keys", func(t *testing.T) {
		if err := store.Delete(context.Background()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "test")
	defer store.Close()

	exerciseStore(t, store)

	t.Run("Prefixed Keys", func(t *testing.T) {
		if err := store.Set(context.Background(), KeyRefreshToken, "r9"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		got, err := mr.Get("test:refresh_token")
		if err != nil {
			t.Fatalf("expected prefixed key in redis: %v", err)
		}
		if got != "r9" {
			t.Errorf("expected r9, got %q", got)
		}
	})

	t.Run("Unavailable", func(t *testing.T) {
		down := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}), "")
		defer down.Close()
		if _, err := down.Get(context.Background(), KeyAccessToken); err == nil {
			t.Error("expected error when redis is down")
		}
	})
}

func TestState(t *testing.T) {
	t.Run("Notifies On Change", func(t *testing.T) {
		state := NewState("")
		var seen []string
		state.Subscribe(func(token string) { seen = append(seen, token) })

		state.SetToken("a1")
		state.SetToken("a1")
		state.SetToken("")

		if len(seen) != 2 || seen[0] != "a1" || seen[1] != "" {
			t.Errorf("expected [a1 \"\"], got %q", seen)
		}
	})

	t.Run("Authenticated", func(t *testing.T) {
		if NewState("").Authenticated() {
			t.Error("empty token should be unauthenticated")
		}
		if !NewState("a1").Authenticated() {
			t.Error("non-empty token should be authenticated")
		}
	})
}
