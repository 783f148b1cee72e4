// Client for the token exchange proxy (POST /api/getTokens, POST /api/refreshToken)
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/spotx/internal/shared"
)

// ProxyClient calls the token exchange proxy on behalf of the client session controller.
type ProxyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProxyClient creates a new proxy client instance.
func NewProxyClient(baseURL string, client *http.Client) *ProxyClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &ProxyClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
	}
}

// proxyError is the failure envelope written by the proxy.
type proxyError struct {
	Error json.RawMessage `json:"error"`
}

// GetTokens exchanges an authorization code through the proxy.
func (p *ProxyClient) GetTokens(ctx context.Context, code string) (*TokenResponse, error) {
	return p.post(ctx, "/api/getTokens", map[string]string{"code": code})
}

// RefreshToken asks the proxy to mint a new access token.
func (p *ProxyClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return p.post(ctx, "/api/refreshToken", map[string]string{"refreshToken": refreshToken})
}

// Health reports whether the proxy answers GET /health.
func (p *ProxyClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &shared.NetworkError{Op: "proxy health", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: proxy health status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

func (p *ProxyClient) post(ctx context.Context, path string, payload any) (*TokenResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &shared.NetworkError{Op: "proxy " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.NetworkError{Op: "read proxy response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		var envelope proxyError
		if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
			return nil, shared.NewUpstreamAuthError(resp.StatusCode, body)
		}
		return nil, shared.NewUpstreamAuthError(resp.StatusCode, envelope.Error)
	case resp.StatusCode >= 500:
		return nil, &shared.NetworkError{
			Op:  "proxy " + path,
			Err: fmt.Errorf("%w: status %d: %s", shared.ErrServiceUnavailable, resp.StatusCode, string(body)),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(body))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrAuthFailed)
	}

	return &token, nil
}
