package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/spotx/internal/shared"
	tu "github.com/desertthunder/spotx/internal/testing"
)

func TestProxyClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			p := NewProxyClient("", nil)
			if p.baseURL != "http://127.0.0.1:5000" {
				t.Errorf("expected default baseURL, got %s", p.baseURL)
			}
			if p.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			p := NewProxyClient("http://example.com/", nil)
			if p.baseURL != "http://example.com" {
				t.Errorf("expected trimmed baseURL, got %s", p.baseURL)
			}
		})
	})

	t.Run("GetTokens", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/getTokens" {
				t.Errorf("expected path /api/getTokens, got %s", r.URL.Path)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
			}

			var body struct {
				Code string `json:"code"`
			}
			json.NewDecoder(r.Body).Decode(&body)

			w.Header().Set("Content-Type", "application/json")
			if body.Code != "validcode" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"error":"invalid_grant","error_description":"Invalid authorization code"}}`))
				return
			}
			w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","expires_in":3600,"token_type":"Bearer"}`))
		}))
		defer server.Close()

		p := NewProxyClient(server.URL, nil)

		t.Run("Valid Code", func(t *testing.T) {
			token, err := p.GetTokens(context.Background(), "validcode")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "access-1" || token.RefreshToken != "refresh-1" {
				t.Errorf("unexpected token %+v", token)
			}
			if token.Token().Expiry.IsZero() {
				t.Error("expected oauth2 token to carry an expiry")
			}
		})

		t.Run("Invalid Code", func(t *testing.T) {
			_, err := p.GetTokens(context.Background(), "invalidcode")

			var upstream *shared.UpstreamAuthError
			if !errors.As(err, &upstream) {
				t.Fatalf("expected UpstreamAuthError, got %v", err)
			}
			if string(upstream.Body) != `{"error":"invalid_grant","error_description":"Invalid authorization code"}` {
				t.Errorf("expected unwrapped provider body, got %s", upstream.Body)
			}
		})
	})

	t.Run("RefreshToken", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/refreshToken" {
				t.Errorf("expected path /api/refreshToken, got %s", r.URL.Path)
			}
			var body struct {
				RefreshToken string `json:"refreshToken"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.RefreshToken != "refresh-1" {
				t.Errorf("expected refreshToken refresh-1, got %s", body.RefreshToken)
			}
			w.Write([]byte(`{"access_token":"access-2","expires_in":3600}`))
		}))
		defer server.Close()

		token, err := NewProxyClient(server.URL, nil).RefreshToken(context.Background(), "refresh-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token.AccessToken != "access-2" {
			t.Errorf("expected access-2, got %s", token.AccessToken)
		}
		if token.RefreshToken != "" {
			t.Errorf("expected empty refresh token, got %s", token.RefreshToken)
		}
	})

	t.Run("Failures", func(t *testing.T) {
		tc := []struct {
			name  string
			resp  *http.Response
			err   error
			check func(error) bool
		}{
			{
				name:  "transport error",
				err:   errors.New("connection refused"),
				check: shared.IsNetworkError,
			},
			{
				name:  "bad gateway",
				resp:  tu.TextResponse(http.StatusBadGateway, `{"error":{"error":"upstream_unavailable"}}`),
				check: shared.IsNetworkError,
			},
			{
				name:  "bad request without envelope",
				resp:  tu.TextResponse(http.StatusBadRequest, "nope"),
				check: func(err error) bool { return errors.Is(err, shared.ErrAuthFailed) },
			},
			{
				name:  "unexpected status",
				resp:  tu.TextResponse(http.StatusTeapot, ""),
				check: func(err error) bool { return errors.Is(err, shared.ErrAPIRequest) },
			},
			{
				name:  "missing access token",
				resp:  tu.TextResponse(http.StatusOK, `{"token_type":"Bearer"}`),
				check: func(err error) bool { return errors.Is(err, shared.ErrAuthFailed) },
			},
			{
				name: "failed body read",
				resp: &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}},
				check: func(err error) bool {
					return shared.IsNetworkError(err)
				},
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				client := &http.Client{Transport: tu.NewMockRoundTripper(tt.resp, tt.err)}
				_, err := NewProxyClient("http://proxy.test", client).RefreshToken(context.Background(), "r")
				if err == nil {
					t.Fatal("expected error")
				}
				if !tt.check(err) {
					t.Errorf("unexpected error kind: %v", err)
				}
			})
		}
	})

	t.Run("Health", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		if err := NewProxyClient(server.URL, nil).Health(context.Background()); err != nil {
			t.Errorf("expected healthy proxy, got %v", err)
		}
	})
}
