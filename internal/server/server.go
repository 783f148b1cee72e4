// package server contains middleware & handlers for the token exchange proxy
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// NewProxyRouter wires the proxy routes and middleware stack.
func NewProxyRouter(cfg *shared.Config, granter TokenGranter, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(
		Recover(logger),
		RequestID(),
		Logging(logger),
		CORS(cfg.Server.AllowedOrigins),
		RateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
	)
	router.Handler(NewTokenProxyHandler(granter, logger))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(Health))
	return router
}

// NewProxyServer returns an unstarted [http.Server] for the token exchange proxy.
func NewProxyServer(cfg *shared.Config, granter TokenGranter, logger *log.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           NewProxyRouter(cfg, granter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
