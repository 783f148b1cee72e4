package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
})

func TestMiddleware(t *testing.T) {
	t.Run("RequestID", func(t *testing.T) {
		t.Run("Generates", func(t *testing.T) {
			var seen string
			h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFrom(r.Context())
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if len(seen) != 36 {
				t.Errorf("expected uuid request id, got %q", seen)
			}
			if rec.Header().Get(requestIDHeader) != seen {
				t.Error("expected request id to be echoed")
			}
		})

		t.Run("Reuses Incoming", func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(requestIDHeader, "abc-123")
			RequestID()(okHandler).ServeHTTP(rec, req)

			if rec.Header().Get(requestIDHeader) != "abc-123" {
				t.Errorf("expected abc-123, got %q", rec.Header().Get(requestIDHeader))
			}
		})
	})

	t.Run("CORS", func(t *testing.T) {
		t.Run("Wildcard", func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			CORS([]string{"*"})(okHandler).ServeHTTP(rec, req)

			if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Errorf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})

		t.Run("Allow List", func(t *testing.T) {
			h := CORS([]string{"http://localhost:3000"})(okHandler)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			h.ServeHTTP(rec, req)
			if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
				t.Error("expected listed origin to be allowed")
			}

			rec = httptest.NewRecorder()
			req = httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Origin", "http://evil.test")
			h.ServeHTTP(rec, req)
			if rec.Header().Get("Access-Control-Allow-Origin") != "" {
				t.Error("expected unlisted origin to be refused")
			}
		})

		t.Run("Preflight Through Router", func(t *testing.T) {
			router := NewProxyRouter(testConfig(), &fakeGranter{}, log.New(io.Discard))
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodOptions, "/api/getTokens", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", "POST")
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("expected 204, got %d", rec.Code)
			}
			if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
				t.Error("expected POST in allowed methods")
			}
		})
	})

	t.Run("RateLimit", func(t *testing.T) {
		h := RateLimit(1, 2)(okHandler)
		codes := make([]int, 3)
		for i := range codes {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			codes[i] = rec.Code
		}
		if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
			t.Errorf("expected burst of 2 to pass, got %v", codes)
		}
		if codes[2] != http.StatusTooManyRequests {
			t.Errorf("expected third request to be limited, got %d", codes[2])
		}
	})

	t.Run("RateLimit Disabled", func(t *testing.T) {
		h := RateLimit(0, 0)(okHandler)
		for range 50 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected no limiting, got %d", rec.Code)
			}
		}
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recover(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Error("expected panic to be logged")
		}
	})

	t.Run("Recover Logs Generated Request ID", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recover(log.New(&buf))(RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get(requestIDHeader)
		if id == "" {
			t.Fatal("expected request id on the 500 response")
		}
		if !strings.Contains(buf.String(), id) {
			t.Errorf("expected request id %s in panic log, got %q", id, buf.String())
		}
	})

	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		h := Logging(log.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		if !strings.Contains(out, "/brew") || !strings.Contains(out, "418") {
			t.Errorf("expected path and status in log line, got %q", out)
		}
	})

	t.Run("Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/x", okHandler)
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second got %v", order)
		}
	})
}
