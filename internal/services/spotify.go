// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/oauth2"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// ArtistNames joins the track's artist names with ", ".
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Owner       Owner               `json:"owner"`
	Public      bool                `json:"public"`
	Tracks      simplePlaylistTrack `json:"tracks"`
	URI         string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items    []SpotifySimplePlaylist `json:"items"`
	Total    int                     `json:"total"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
	Next     *string                 `json:"next"`
	Previous *string                 `json:"previous"`
}

// SpotifyDevice is the device a playback session is active on.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	VolumePercent int    `json:"volume_percent"`
}

// SpotifyPlayback is the user's current playback state.
type SpotifyPlayback struct {
	IsPlaying    bool          `json:"is_playing"`
	ProgressMS   int           `json:"progress_ms"`
	ShuffleState bool          `json:"shuffle_state"`
	RepeatState  string        `json:"repeat_state"`
	Device       SpotifyDevice `json:"device"`
	Item         *SpotifyTrack `json:"item"`
}

// APIError is a non-2xx Web API response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Message)
}

// Is matches [shared.ErrAPIRequest] always and [shared.ErrTokenExpired] for 401s.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrTokenExpired:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// OAuthConfig returns the authorization-code configuration for the terminal login flow.
//
// The client secret stays on the proxy.
func OAuthConfig(creds shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    creds.ClientID,
		RedirectURL: creds.RedirectURI,
		Scopes:      Scopes,
		Endpoint:    SpotifyEndpoint,
	}
}

// AuthURL returns the Spotify authorize URL for the given state.
func AuthURL(creds shared.SpotifyConfig, state string) string {
	return OAuthConfig(creds).AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "false"))
}

// SpotifyService reads the Spotify Web API through a [Doer], normally the session client
// that injects the bearer credential and handles refresh.
type SpotifyService struct {
	baseURL string
	client  Doer
}

// NewSpotifyService creates a new Spotify service. An empty baseURL uses the public Web API.
func NewSpotifyService(baseURL string, client Doer) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SpotifyService{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs a GET against the Web API and decodes the JSON result.
//
// A 204 leaves result untouched and reports found=false.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, decodeAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return true, nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if _, err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))
	query.Set("offset", fmt.Sprint(offset))

	var response SpotifyPaginatedPlaylists
	if _, err := s.doRequest(ctx, "/me/playlists?"+query.Encode(), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// AllPlaylists follows pagination until every playlist has been fetched.
func (s *SpotifyService) AllPlaylists(ctx context.Context) ([]SpotifySimplePlaylist, error) {
	var all []SpotifySimplePlaylist
	const limit = 50
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += limit
	}

	return all, nil
}

// CurrentlyPlaying returns the user's playback state, or nil when nothing is playing.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*SpotifyPlayback, error) {
	var playback SpotifyPlayback
	found, err := s.doRequest(ctx, "/me/player", &playback)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &playback, nil
}

// IsUnauthorized reports whether err came from a 401 Web API response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, shared.ErrTokenExpired)
}
