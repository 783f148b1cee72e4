package session

import (
	"context"
	"fmt"
	"sync"
)

// Durable storage keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// TokenPair is the access/refresh token pair owned by the session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Store is durable string storage for the token pair.
//
// Get returns "" with a nil error for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// LoadPair reads both tokens from the store.
func LoadPair(ctx context.Context, store Store) (TokenPair, error) {
	access, err := store.Get(ctx, KeyAccessToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to read %s: %w", KeyAccessToken, err)
	}
	refresh, err := store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to read %s: %w", KeyRefreshToken, err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// SavePair writes the access token and, when present, the refresh token.
//
// An empty refresh token leaves the stored one in place.
func SavePair(ctx context.Context, store Store, pair TokenPair) error {
	if err := store.Set(ctx, KeyAccessToken, pair.AccessToken); err != nil {
		return fmt.Errorf("failed to store %s: %w", KeyAccessToken, err)
	}
	if pair.RefreshToken == "" {
		return nil
	}
	if err := store.Set(ctx, KeyRefreshToken, pair.RefreshToken); err != nil {
		return fmt.Errorf("failed to store %s: %w", KeyRefreshToken, err)
	}
	return nil
}

// Logout clears both stored tokens and marks the session unauthenticated.
func Logout(ctx context.Context, store Store, state *State) error {
	err := store.Delete(ctx, KeyAccessToken, KeyRefreshToken)
	if state != nil {
		state.SetToken("")
	}
	if err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// MemoryStore is a process-local [Store].
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
