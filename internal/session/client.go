package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
)

type retriedKey struct{}

// WithRetried marks ctx so a request carrying it is never refreshed again.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// IsRetried reports whether ctx was marked by [WithRetried].
func IsRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey{}).(bool)
	return retried
}

// Client decorates an [http.Client] for Web API calls.
//
// Requests to the API host get the stored access token as a bearer credential.
// A 401 from the API host triggers one coordinated refresh and one re-send.
type Client struct {
	http        *http.Client
	store       Store
	coordinator *RefreshCoordinator
	apiHost     string
	logger      *log.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func WithClientLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient builds a client that authorizes requests bound for apiBaseURL's host.
func NewClient(apiBaseURL string, store Store, coordinator *RefreshCoordinator, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: missing host", apiBaseURL)
	}

	c := &Client{
		http:        http.DefaultClient,
		store:       store,
		coordinator: coordinator,
		apiHost:     u.Host,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) targetsAPI(req *http.Request) bool {
	return req.URL != nil && req.URL.Host == c.apiHost
}

// authorize attaches the stored access token to requests bound for the API host
// and returns the token it attached.
func (c *Client) authorize(req *http.Request) (string, error) {
	if !c.targetsAPI(req) {
		return "", nil
	}
	token, err := c.store.Get(req.Context(), KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return token, nil
}

// Do sends req, refreshing the access token once if the API answers 401.
//
// When the refresh fails its error is returned and the session is logged out.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)
	if err := rewindable(out); err != nil {
		return nil, err
	}

	sent, err := c.authorize(out)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !c.targetsAPI(out) || IsRetried(ctx) {
		return resp, nil
	}

	refreshToken, err := c.store.Get(ctx, KeyRefreshToken)
	if err != nil || refreshToken == "" {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retryCtx := WithRetried(ctx)

	// A refresh that settled after this request went out already replaced the token.
	token, err := c.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read access token: %w", err)
	}
	if token == "" || token == sent {
		c.logger.Debug("Access token rejected, refreshing", "url", out.URL.Redacted())
		if token, err = c.coordinator.Refresh(retryCtx); err != nil {
			return nil, err
		}
	} else {
		c.logger.Debug("Access token already replaced, re-sending", "url", out.URL.Redacted())
	}

	retry := out.Clone(retryCtx)
	if out.GetBody != nil {
		body, err := out.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+token)
	return c.http.Do(retry)
}

// rewindable makes req's body replayable for a single re-send.
func rewindable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()
	return nil
}
