// package services defines clients for the HTTP APIs spotx talks to
//
// Spotify accounts (token endpoint), the token exchange proxy, Spotify Web API
package services

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyEndpoint is the Spotify accounts OAuth2 endpoint. Client credentials go in the Basic auth header.
var SpotifyEndpoint = oauth2.Endpoint{
	AuthURL:   spotifyAuthURL,
	TokenURL:  spotifyTokenURL,
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Scopes requested during login.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"user-read-playback-state",
	"user-read-currently-playing",
	"user-library-read",
}

// Doer sends an HTTP request. [http.Client] and the session client both satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenResponse is the decoded token payload relayed by the proxy.
//
// RefreshToken is empty when the provider keeps the existing refresh token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Token converts the payload to an [oauth2.Token], computing the expiry from now.
func (t *TokenResponse) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if t.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return token
}
