package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

const maxBodyBytes = 16 << 10

// TokenGranter performs the provider grants. [services.TokenEndpoint] is the production implementation.
type TokenGranter interface {
	ExchangeCode(ctx context.Context, code string) (json.RawMessage, error)
	RefreshToken(ctx context.Context, refreshToken string) (json.RawMessage, error)
}

// TokenProxyHandler serves POST /api/getTokens and POST /api/refreshToken.
//
// Provider responses are relayed without interpretation.
type TokenProxyHandler struct {
	granter TokenGranter
	logger  *log.Logger
}

func NewTokenProxyHandler(granter TokenGranter, logger *log.Logger) *TokenProxyHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TokenProxyHandler{granter: granter, logger: logger}
}

func (h *TokenProxyHandler) Routes() []string {
	return []string{"/api/getTokens", "/api/refreshToken"}
}

func (h *TokenProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	switch r.URL.Path {
	case "/api/getTokens":
		h.getTokens(w, r)
	case "/api/refreshToken":
		h.refreshToken(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *TokenProxyHandler) getTokens(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}
	if body.Code == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", "code is required"))
		return
	}

	payload, err := h.granter.ExchangeCode(r.Context(), body.Code)
	h.relay(w, r, "authorization_code", payload, err)
}

func (h *TokenProxyHandler) refreshToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}
	if body.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_request", "refreshToken is required"))
		return
	}

	payload, err := h.granter.RefreshToken(r.Context(), body.RefreshToken)
	h.relay(w, r, "refresh_token", payload, err)
}

func (h *TokenProxyHandler) relay(w http.ResponseWriter, r *http.Request, grant string, payload json.RawMessage, err error) {
	logger := h.logger.With("grant", grant, "request_id", RequestIDFrom(r.Context()))

	var upstream *shared.UpstreamAuthError
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	case errors.As(err, &upstream):
		logger.Warn("Provider rejected grant", "status", upstream.Status)
		writeJSON(w, http.StatusBadRequest, map[string]json.RawMessage{"error": upstream.Body})
	case shared.IsNetworkError(err):
		logger.Error("Provider unreachable", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody("upstream_unavailable", "token endpoint unreachable"))
	default:
		logger.Error("Grant failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody("upstream_error", "unexpected token endpoint response"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.New("request body must be a JSON object")
	}
	return nil
}

// errorBody builds the {"error": {"error": ..., "error_description": ...}} envelope.
func errorBody(code, description string) map[string]map[string]string {
	return map[string]map[string]string{
		"error": {"error": code, "error_description": description},
	}
}
