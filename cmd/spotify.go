package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// apiError maps a Web API failure to the message the user acts on.
func apiError(err error) error {
	if errors.Is(err, shared.ErrRefreshFailed) {
		return fmt.Errorf("%w: session expired, run 'spotx login' (%v)", shared.ErrNotAuthenticated, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

// Me prints the signed-in user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	deps, err := r.resume(ctx)
	if err != nil {
		return err
	}

	user, err := deps.spotify.UserProfile(ctx)
	if err != nil {
		return apiError(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", ui.ProfileView(user))
}

// Playlists lists the signed-in user's playlists with optional limit.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))

	deps, err := r.resume(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("listing spotify playlists with limit %v", limit)

	playlists, err := deps.spotify.AllPlaylists(ctx)
	if err != nil {
		return apiError(err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("save") {
		saveFile := "spotify_playlists.json"
		if err := r.saveJSON(saveFile, playlists); err != nil {
			r.logger.Warn("failed to save playlists", "error", err)
		} else {
			r.logger.Info("playlists saved", "file", saveFile)
		}
	}

	if format := cmd.String("format"); format != "" {
		data, err := formatter.Render(formatter.Format(format), playlists)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", ui.PlaylistsView(playlists))
}

// nowPlaying is the combined result of [Runner.Now].
type nowPlaying struct {
	User     *services.SpotifyUser     `json:"user"`
	Playback *services.SpotifyPlayback `json:"playback"`
}

// Now fetches the profile and playback state concurrently.
//
// Both calls share one session client, so an expired token triggers a single refresh.
func (r *Runner) Now(ctx context.Context, cmd *cli.Command) error {
	deps, err := r.resume(ctx)
	if err != nil {
		return err
	}

	var now nowPlaying
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := deps.spotify.UserProfile(gctx)
		now.User = user
		return err
	})
	g.Go(func() error {
		playback, err := deps.spotify.CurrentlyPlaying(gctx)
		now.Playback = playback
		return err
	})
	if err := g.Wait(); err != nil {
		return apiError(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(now, true)
	}

	name := now.User.DisplayName
	if name == "" {
		name = now.User.ID
	}
	r.writePlain("Listening as %s\n", name)
	return r.writePlain("%s\n", ui.PlayerView(now.Playback))
}

func (r *Runner) saveJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	saved := &Runner{output: file}
	return saved.writeJSON(data, true)
}
