// Package ui renders the terminal views of the spotx session with lipgloss.
//
// The login view prompts for browser authorization; the player view shows the
// current playback. Profile, playlist and status views back the matching commands.
package ui
