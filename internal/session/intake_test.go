package session

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad url %q: %v", raw, err)
	}
	return u
}

func TestIntake(t *testing.T) {
	ctx := context.Background()

	t.Run("Redeems Code", func(t *testing.T) {
		store := NewMemoryStore()
		state := NewState("")
		exchanger := &MockExchanger{Response: &services.TokenResponse{AccessToken: "a1", RefreshToken: "r1"}}

		result, err := NewIntake(exchanger, store, state, nil).Start(ctx, mustURL(t, "http://127.0.0.1:3000/callback?code=abc&state=xyz&keep=1"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.View != ViewPlayer {
			t.Errorf("expected player view, got %s", result.View)
		}
		if result.Location.RawQuery != "keep=1" {
			t.Errorf("expected code and state stripped, got %q", result.Location.RawQuery)
		}
		if len(exchanger.Codes) != 1 || exchanger.Codes[0] != "abc" {
			t.Errorf("expected code abc to be exchanged, got %v", exchanger.Codes)
		}
		if mustGet(t, store, KeyAccessToken) != "a1" || mustGet(t, store, KeyRefreshToken) != "r1" {
			t.Error("expected both tokens stored")
		}
		if state.Token() != "a1" {
			t.Errorf("expected state token a1, got %q", state.Token())
		}
	})

	t.Run("Response Without Refresh Token", func(t *testing.T) {
		store := NewMemoryStore()
		exchanger := &MockExchanger{Response: &services.TokenResponse{AccessToken: "a1"}}

		result, err := NewIntake(exchanger, store, NewState(""), nil).Start(ctx, mustURL(t, "/?code=abc"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.View != ViewPlayer {
			t.Errorf("expected player view, got %s", result.View)
		}
		if mustGet(t, store, KeyRefreshToken) != "" {
			t.Error("expected no refresh token stored")
		}
	})

	t.Run("Failed Exchange Leaves Tokens", func(t *testing.T) {
		store := seededStore(t, "old-access", "old-refresh")
		state := NewState("")
		exchanger := &MockExchanger{Err: shared.NewUpstreamAuthError(400, []byte(`{"error":"invalid_grant"}`))}

		result, err := NewIntake(exchanger, store, state, nil).Start(ctx, mustURL(t, "/?code=bad&state=s"))
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if result.View != ViewLogin {
			t.Errorf("expected login view, got %s", result.View)
		}
		if result.Location.RawQuery != "" {
			t.Errorf("expected params stripped on failure too, got %q", result.Location.RawQuery)
		}
		if mustGet(t, store, KeyAccessToken) != "old-access" || mustGet(t, store, KeyRefreshToken) != "old-refresh" {
			t.Error("expected stored tokens to be untouched")
		}
		if state.Authenticated() {
			t.Error("expected state to stay unauthenticated")
		}
	})

	t.Run("Empty Access Token Is A Failure", func(t *testing.T) {
		exchanger := &MockExchanger{Response: &services.TokenResponse{}}
		_, err := NewIntake(exchanger, NewMemoryStore(), NewState(""), nil).Start(ctx, mustURL(t, "/?code=abc"))
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Authorization Denied", func(t *testing.T) {
		exchanger := &MockExchanger{}
		result, err := NewIntake(exchanger, NewMemoryStore(), NewState(""), nil).Start(ctx, mustURL(t, "/?error=access_denied&state=s"))
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if result.View != ViewLogin {
			t.Errorf("expected login view, got %s", result.View)
		}
		if len(exchanger.Codes) != 0 {
			t.Error("expected no exchange")
		}
	})

	t.Run("Resumes Stored Session", func(t *testing.T) {
		state := NewState("")
		result, err := NewIntake(&MockExchanger{}, seededStore(t, "stored", "r"), state, nil).Start(ctx, mustURL(t, "/"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.View != ViewPlayer || state.Token() != "stored" {
			t.Errorf("expected player view with stored token, got %s %q", result.View, state.Token())
		}
	})

	t.Run("No Session", func(t *testing.T) {
		result, err := NewIntake(&MockExchanger{}, NewMemoryStore(), NewState(""), nil).Start(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.View != ViewLogin {
			t.Errorf("expected login view, got %s", result.View)
		}
	})
}
