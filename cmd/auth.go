package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/session"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Login performs the authorization-code flow through the proxy.
//
// A one-shot callback server on the redirect URI receives the browser redirect and
// hands it to the session intake, which exchanges the code and stores the tokens.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	deps, err := r.openSession(ctx)
	if err != nil {
		return err
	}

	creds := r.config.Credentials.Spotify
	redirect, err := url.Parse(creds.RedirectURI)
	if err != nil || redirect.Host == "" {
		return &shared.ConfigurationError{Field: "redirect_uri"}
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}
	authURL := services.AuthURL(creds, state)

	var result session.Result
	callback := server.NewCallbackHandler(redirect.Path, state, func(ctx context.Context, location *url.URL) error {
		res, err := deps.intake.Start(ctx, location)
		result = res
		return err
	})

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(callback)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen for callback on %s: %w", redirect.Host, err)
	}
	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Debug("callback server listening", "addr", listener.Addr().String())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("%s\n", ui.LoginView(authURL))
	if !cmd.Bool("no-browser") {
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
		}
	}

	timeout := cmd.Duration("timeout")
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-callback.Result():
		if err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	var expiry time.Time
	if result.Token != nil {
		expiry = result.Token.Token().Expiry
	}
	return r.writePlain("%s\n", ui.SignedInView(expiry))
}

// Logout clears both stored tokens.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	if err := session.Logout(ctx, store, nil); err != nil {
		return err
	}
	r.logger.Info("tokens cleared")
	return r.writePlain("✓ Signed out\n")
}

// Status reports whether tokens are stored and the proxy is reachable.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	deps, err := r.openSession(ctx)
	if err != nil {
		return err
	}

	pair, err := session.LoadPair(ctx, deps.store)
	if err != nil {
		return err
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := ui.Status{
		Authenticated:   pair.AccessToken != "",
		HasRefreshToken: pair.RefreshToken != "",
		Store:           r.config.Session.Store,
		ProxyURL:        r.config.Session.ProxyURL,
		ProxyErr:        deps.proxy.Health(healthCtx),
	}
	return r.writePlain("%s\n", ui.StatusView(status))
}
