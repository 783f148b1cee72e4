// package formatter renders playlist listings to export formats (CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// Format is an export format name accepted by [Render].
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Render formats playlists as the named format.
func Render(format Format, playlists []services.SpotifySimplePlaylist) ([]byte, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatCSV:
		return PlaylistsToCSV(playlists)
	case FormatMarkdown, "md":
		return PlaylistsToMarkdown(playlists), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}
}

// PlaylistsToCSV writes columns: ID, Name, Owner, Tracks, Visibility, URI
func PlaylistsToCSV(playlists []services.SpotifySimplePlaylist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Owner", "Tracks", "Visibility", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range playlists {
		record := []string{
			p.ID,
			p.Name,
			p.Owner.DisplayName,
			strconv.Itoa(p.Tracks.Total),
			visibility(p.Public),
			p.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistsToMarkdown writes a numbered Markdown list.
func PlaylistsToMarkdown(playlists []services.SpotifySimplePlaylist) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Playlists\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(playlists)))

	for i, p := range playlists {
		buf.WriteString(fmt.Sprintf("%d. **%s** (%d tracks, %s)\n", i+1, p.Name, p.Tracks.Total, visibility(p.Public)))
		if p.Description != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", p.Description))
		}
	}

	return buf.Bytes()
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
