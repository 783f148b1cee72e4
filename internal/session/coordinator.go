package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

const DefaultRefreshTimeout = 15 * time.Second

// Refresher exchanges a refresh token for new credentials, normally through the proxy.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenResponse, error)
}

type refreshResult struct {
	token string
	err   error
}

// RefreshCoordinator serializes token refreshes.
//
// At most one refresh runs at a time. Callers arriving while it runs are queued
// and all of them observe its outcome. A failed refresh logs the session out.
type RefreshCoordinator struct {
	refresher Refresher
	store     Store
	state     *State
	timeout   time.Duration
	logger    *log.Logger

	mu         sync.Mutex
	refreshing bool
	pending    []chan refreshResult
}

type CoordinatorOption func(*RefreshCoordinator)

// WithRefreshTimeout bounds a single refresh. Zero or negative keeps the default.
func WithRefreshTimeout(d time.Duration) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithCoordinatorLogger(logger *log.Logger) CoordinatorOption {
	return func(c *RefreshCoordinator) { c.logger = logger }
}

func NewRefreshCoordinator(refresher Refresher, store Store, state *State, opts ...CoordinatorOption) *RefreshCoordinator {
	c := &RefreshCoordinator{
		refresher: refresher,
		store:     store,
		state:     state,
		timeout:   DefaultRefreshTimeout,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refreshing reports whether a refresh is in flight.
func (c *RefreshCoordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending reports how many callers are waiting on the in-flight refresh.
func (c *RefreshCoordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Refresh returns a fresh access token.
//
// The first caller performs the refresh; concurrent callers wait for it and get
// the same token or the same error. A caller whose ctx ends while waiting returns
// ctx.Err() but the refresh itself continues.
func (c *RefreshCoordinator) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.pending = append(c.pending, ch)
		waiting := len(c.pending)
		c.mu.Unlock()

		c.logger.Debug("Queued behind in-flight refresh", "pending", waiting)
		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	token, err := c.refresh(refreshCtx)
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
		c.logger.Warn("Token refresh failed, clearing session", "error", err)
		c.logout(ctx)
	} else {
		c.logger.Debug("Token refreshed")
	}

	c.settle(refreshResult{token: token, err: err})
	return token, err
}

func (c *RefreshCoordinator) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	resp, err := c.refresher.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if resp == nil || resp.AccessToken == "" {
		return "", shared.ErrAuthFailed
	}

	if err := SavePair(ctx, c.store, TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		return "", err
	}
	c.state.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func (c *RefreshCoordinator) logout(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()
	if err := Logout(ctx, c.store, c.state); err != nil {
		c.logger.Error("Failed to clear session", "error", err)
	}
}

// settle hands res to every queued caller and ends the refresh.
func (c *RefreshCoordinator) settle(res refreshResult) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- res
	}
}
