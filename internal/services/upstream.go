// Spotify accounts token endpoint client used by the token exchange proxy
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

// DefaultUpstreamTimeout bounds a single token endpoint round trip.
const DefaultUpstreamTimeout = 15 * time.Second

// TokenEndpoint performs server-authenticated grants against the provider's token endpoint
// and returns the provider's response body untouched.
//
// It holds no per-request state and is safe for concurrent use.
type TokenEndpoint struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	httpClient   *http.Client
	logger       *log.Logger
}

// EndpointOption configures a [TokenEndpoint].
type EndpointOption func(*TokenEndpoint)

// WithTokenURL points the endpoint at a different token URL (tests only).
func WithTokenURL(tokenURL string) EndpointOption {
	return func(e *TokenEndpoint) {
		e.tokenURL = tokenURL
	}
}

// WithHTTPClient sets the HTTP client used for the upstream call.
func WithHTTPClient(client *http.Client) EndpointOption {
	return func(e *TokenEndpoint) {
		e.httpClient = client
	}
}

// WithLogger sets the endpoint's logger.
func WithLogger(logger *log.Logger) EndpointOption {
	return func(e *TokenEndpoint) {
		e.logger = logger
	}
}

// NewTokenEndpoint creates a [TokenEndpoint] for the given credentials.
//
// Absent credentials return a [shared.ConfigurationError] so the proxy fails at startup.
func NewTokenEndpoint(creds shared.SpotifyConfig, opts ...EndpointOption) (*TokenEndpoint, error) {
	switch {
	case creds.ClientID == "":
		return nil, &shared.ConfigurationError{Field: "client_id"}
	case creds.ClientSecret == "":
		return nil, &shared.ConfigurationError{Field: "client_secret"}
	case creds.RedirectURI == "":
		return nil, &shared.ConfigurationError{Field: "redirect_uri"}
	}

	e := &TokenEndpoint{
		clientID:     creds.ClientID,
		clientSecret: creds.ClientSecret,
		redirectURI:  creds.RedirectURI,
		tokenURL:     SpotifyEndpoint.TokenURL,
		httpClient:   &http.Client{Timeout: DefaultUpstreamTimeout},
		logger:       shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExchangeCode trades an authorization code for a token pair.
func (e *TokenEndpoint) ExchangeCode(ctx context.Context, code string) (json.RawMessage, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {e.redirectURI},
	}
	return e.grant(ctx, form)
}

// RefreshToken mints a new access token. The response may omit refresh_token.
func (e *TokenEndpoint) RefreshToken(ctx context.Context, refreshToken string) (json.RawMessage, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return e.grant(ctx, form)
}

func (e *TokenEndpoint) grant(ctx context.Context, form url.Values) (json.RawMessage, error) {
	grantType := form.Get("grant_type")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(e.clientID, e.clientSecret)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &shared.NetworkError{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.NetworkError{Op: "read token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Debug("token request rejected", "grant_type", grantType, "status", resp.StatusCode)
		return nil, shared.NewUpstreamAuthError(resp.StatusCode, body)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: token endpoint returned non-JSON body", shared.ErrAPIRequest)
	}

	e.logger.Debug("token request succeeded", "grant_type", grantType)
	return json.RawMessage(body), nil
}
