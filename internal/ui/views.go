package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spotx/internal/services"
)

const accent = lipgloss.Color("#1DB954")

// Status summarizes the local session for [StatusView].
type Status struct {
	Authenticated   bool
	HasRefreshToken bool
	Store           string
	ProxyURL        string
	ProxyErr        error
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.label.Render(label), value)
}

func check(ok bool, yes, no string) string {
	if ok {
		return styles.ok.Render("✓ " + yes)
	}
	return styles.err.Render("✗ " + no)
}

// LoginView prompts the user to authorize in the browser.
func LoginView(authURL string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Sign in to Spotify"))
	b.WriteString("\n")
	b.WriteString("Authorize spotx in your browser. If it did not open, visit:\n\n")
	b.WriteString(authURL)
	b.WriteString("\n\n")
	b.WriteString(styles.help.Render("Waiting for the callback..."))
	return b.String()
}

// SignedInView confirms a completed login.
func SignedInView(expiry time.Time) string {
	lines := []string{styles.ok.Render("✓ Signed in")}
	if !expiry.IsZero() {
		lines = append(lines, row("Expires", expiry.Local().Format(time.Kitchen)))
	}
	return strings.Join(lines, "\n")
}

// StatusView renders the session and proxy state.
func StatusView(s Status) string {
	proxy := check(s.ProxyErr == nil, "reachable", "unreachable")
	if s.ProxyErr != nil {
		proxy += " " + styles.help.Render(s.ProxyErr.Error())
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		row("Session", check(s.Authenticated, "signed in", "signed out")),
		row("Refresh", check(s.HasRefreshToken, "available", "missing")),
		row("Store", s.Store),
		row("Proxy", s.ProxyURL),
		row("", proxy),
	)
	return styles.title.Render("spotx status") + "\n" + styles.box.Render(body)
}

// ProfileView renders the user's profile.
func ProfileView(user *services.SpotifyUser) string {
	if user == nil {
		return styles.warn.Render("No profile")
	}
	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		row("ID", user.ID),
		row("Email", user.Email),
		row("Country", user.Country),
		row("Plan", user.Product),
		row("Followers", fmt.Sprint(user.Followers.Total)),
	)
	return styles.title.Render(name) + "\n" + styles.box.Render(body)
}

// PlaylistsView renders a numbered playlist listing.
func PlaylistsView(playlists []services.SpotifySimplePlaylist) string {
	if len(playlists) == 0 {
		return styles.warn.Render("No playlists found")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Found %d playlists", len(playlists))))
	b.WriteString("\n")
	for i, p := range playlists {
		visibility := "private"
		if p.Public {
			visibility = "public"
		}
		fmt.Fprintf(&b, "%3d. %s %s\n", i+1, p.Name,
			styles.help.Render(fmt.Sprintf("(%d tracks, %s, by %s)", p.Tracks.Total, visibility, p.Owner.DisplayName)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// PlayerView renders the current playback, or an idle message for nil.
func PlayerView(playback *services.SpotifyPlayback) string {
	if playback == nil || playback.Item == nil {
		return styles.help.Render("Nothing playing")
	}

	state := styles.ok.Render("▶ Playing")
	if !playback.IsPlaying {
		state = styles.warn.Render("⏸ Paused")
	}

	track := playback.Item
	progress := fmt.Sprintf("%s / %s", clock(playback.ProgressMS), clock(track.DurationMS))

	body := lipgloss.JoinVertical(lipgloss.Left,
		row("Track", styles.As(track.Name, accent)),
		row("Artist", track.ArtistNames()),
		row("Album", track.Album.Name),
		row("Progress", progress),
		row("Device", playback.Device.Name),
	)
	return state + "\n" + styles.box.Render(body)
}

func clock(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
