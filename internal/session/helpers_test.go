package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotx/internal/services"
)

// MockRefresher answers with Response or Err after Gate is closed (when set).
type MockRefresher struct {
	Gate     chan struct{}
	Response *services.TokenResponse
	Err      error
	calls    atomic.Int32
	lastRT   atomic.Value
}

func (m *MockRefresher) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenResponse, error) {
	m.calls.Add(1)
	m.lastRT.Store(refreshToken)
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Response, m.Err
}

func (m *MockRefresher) Calls() int {
	return int(m.calls.Load())
}

func (m *MockRefresher) LastRefreshToken() string {
	rt, _ := m.lastRT.Load().(string)
	return rt
}

// MockExchanger answers GetTokens with Response or Err.
type MockExchanger struct {
	Response *services.TokenResponse
	Err      error
	Codes    []string
}

func (m *MockExchanger) GetTokens(_ context.Context, code string) (*services.TokenResponse, error) {
	m.Codes = append(m.Codes, code)
	return m.Response, m.Err
}

// seededStore returns a memory store holding the given pair.
func seededStore(t *testing.T, access, refresh string) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	ctx := context.Background()
	if access != "" {
		store.Set(ctx, KeyAccessToken, access)
	}
	if refresh != "" {
		store.Set(ctx, KeyRefreshToken, refresh)
	}
	return store
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func mustGet(t *testing.T, store Store, key string) string {
	t.Helper()
	v, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("failed to read %s: %v", key, err)
	}
	return v
}
