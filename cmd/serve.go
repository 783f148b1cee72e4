package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/spotx/internal/server"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/urfave/cli/v3"
)

// Serve runs the token exchange proxy until interrupted.
//
// Missing credentials fail here, before the listener opens.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = int(port)
	}

	if err := r.config.ValidateProxy(); err != nil {
		return err
	}

	endpoint, err := services.NewTokenEndpoint(r.config.Credentials.Spotify,
		services.WithHTTPClient(r.httpClient),
		services.WithLogger(r.logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", r.config.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.config.ListenAddr(), err)
	}
	return r.serveProxy(ctx, listener, server.NewProxyServer(r.config, endpoint, r.logger))
}

func (r *Runner) serveProxy(ctx context.Context, listener net.Listener, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("token proxy listening", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down token proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
