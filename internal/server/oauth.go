package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/spotx/internal/shared"
)

// CallbackFunc completes a login from the OAuth redirect location.
type CallbackFunc func(ctx context.Context, location *url.URL) error

// CallbackHandler receives the OAuth2 redirect for the terminal login flow.
//
// It validates the state parameter, hands the full redirect location to a
// [CallbackFunc], and reports the outcome on [CallbackHandler.Result]. Only the
// first callback is processed.
type CallbackHandler struct {
	path     string
	state    string
	complete CallbackFunc

	result      chan error
	once        sync.Once
	mu          sync.Mutex
	callbackHit bool
}

// NewCallbackHandler serves path and expects the given state token.
func NewCallbackHandler(path, state string, complete CallbackFunc) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:     path,
		state:    state,
		complete: complete,
		result:   make(chan error, 1),
	}
}

func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if r.URL.Query().Get("state") != h.state {
		err := fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)
		h.send(err)
		renderCallback(w, http.StatusBadRequest, err)
		return
	}

	location := *r.URL
	if err := h.complete(r.Context(), &location); err != nil {
		h.send(err)
		renderCallback(w, http.StatusBadRequest, err)
		return
	}

	h.send(nil)
	renderCallback(w, http.StatusOK, nil)
}

func (h *CallbackHandler) send(err error) {
	h.once.Do(func() {
		h.result <- err
		close(h.result)
	})
}

// Result receives exactly one outcome and is then closed.
func (h *CallbackHandler) Result() <-chan error {
	return h.result
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{if .Err}}Authorization Failed{{else}}Authorization Successful{{end}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; }
        .ok { color: #1DB954; }
        .fail { color: #E22134; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
    {{if .Err}}
        <h1 class="fail">Authorization Failed</h1>
        <p>{{.Err}}</p>
    {{else}}
        <h1 class="ok">&#10003; Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    {{end}}
    </div>
</body>
</html>
`))

func renderCallback(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, struct{ Err error }{err})
}
