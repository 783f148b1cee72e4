package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/spotx/internal/services"
)

func TestViews(t *testing.T) {
	t.Run("LoginView", func(t *testing.T) {
		out := LoginView("https://accounts.spotify.com/authorize?x=1")
		if !strings.Contains(out, "https://accounts.spotify.com/authorize?x=1") {
			t.Errorf("expected auth URL in view, got %q", out)
		}
	})

	t.Run("StatusView", func(t *testing.T) {
		out := StatusView(Status{Authenticated: true, Store: "sqlite", ProxyURL: "http://127.0.0.1:5000", ProxyErr: errors.New("connection refused")})
		for _, want := range []string{"signed in", "missing", "sqlite", "unreachable", "connection refused"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in status view, got %q", want, out)
			}
		}
	})

	t.Run("ProfileView", func(t *testing.T) {
		out := ProfileView(&services.SpotifyUser{ID: "u1", Product: "premium"})
		if !strings.Contains(out, "u1") || !strings.Contains(out, "premium") {
			t.Errorf("expected ID fallback and plan, got %q", out)
		}
		if !strings.Contains(ProfileView(nil), "No profile") {
			t.Error("expected placeholder for nil user")
		}
	})

	t.Run("PlaylistsView", func(t *testing.T) {
		out := PlaylistsView([]services.SpotifySimplePlaylist{
			{Name: "Road Trip", Public: true},
			{Name: "Focus"},
		})
		if !strings.Contains(out, "Found 2 playlists") || !strings.Contains(out, "2. Focus") {
			t.Errorf("unexpected listing %q", out)
		}
		if !strings.Contains(PlaylistsView(nil), "No playlists") {
			t.Error("expected empty message")
		}
	})

	t.Run("PlayerView", func(t *testing.T) {
		if !strings.Contains(PlayerView(nil), "Nothing playing") {
			t.Error("expected idle message")
		}

		out := PlayerView(&services.SpotifyPlayback{
			IsPlaying:  false,
			ProgressMS: 65_000,
			Item: &services.SpotifyTrack{
				Name:       "Song",
				DurationMS: 200_000,
				Artists:    []services.SpotifyArtist{{Name: "A"}},
			},
		})
		for _, want := range []string{"Paused", "Song", "1:05 / 3:20"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in player view, got %q", want, out)
			}
		}
	})
}
