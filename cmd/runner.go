package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/session"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	configSet   bool
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	store       session.Store
	closers     []func() error
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Store      session.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	configSet := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		configSet:   configSet,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		store:       opts.Store,
		openBrowser: shared.OpenBrowser,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, loginCommand, logoutCommand, statusCommand, meCommand, playlistsCommand, nowCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration once for every command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if !r.configSet {
		r.config = r.loadConfig(r.configPath)
		r.configSet = true
	}
	if err := shared.ApplyEnv(r.config); err != nil {
		return ctx, err
	}

	level := r.config.LogLevel
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// After releases stores opened for the command.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	for _, closeFn := range r.closers {
		if err := closeFn(); err != nil {
			r.logger.Warn("failed to close resource", "error", err)
		}
	}
	r.closers = nil
	return nil
}

func (r *Runner) loadConfig(path string) *shared.Config {
	if path == "" {
		return shared.DefaultConfig()
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig()
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// openStore returns the configured token store, opening it on first use.
func (r *Runner) openStore(ctx context.Context) (session.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	switch r.config.Session.Store {
	case "memory":
		r.store = session.NewMemoryStore()
	case "sqlite", "":
		store, err := session.OpenSQLiteStore(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
		r.closers = append(r.closers, store.Close)
		r.store = store
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     r.config.Redis.Addr,
			Password: r.config.Redis.Password,
			DB:       r.config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, r.config.Redis.Addr, err)
		}
		store := session.NewRedisStore(client, r.config.Redis.Prefix)
		r.closers = append(r.closers, store.Close)
		r.store = store
	default:
		return nil, fmt.Errorf("%w: unknown store %q", shared.ErrInvalidConfig, r.config.Session.Store)
	}

	r.logger.Debug("opened token store", "kind", r.config.Session.Store)
	return r.store, nil
}

// sessionDeps is the client-side object graph shared by the session commands.
type sessionDeps struct {
	store   session.Store
	state   *session.State
	proxy   *services.ProxyClient
	intake  *session.Intake
	client  *session.Client
	spotify *services.SpotifyService
}

func (r *Runner) openSession(ctx context.Context) (*sessionDeps, error) {
	if err := r.config.ValidateSession(); err != nil {
		return nil, err
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return nil, err
	}

	state := session.NewState("")
	proxy := services.NewProxyClient(r.config.Session.ProxyURL, r.httpClient)
	coordinator := session.NewRefreshCoordinator(proxy, store, state,
		session.WithRefreshTimeout(r.config.Session.RefreshTimeout.Duration),
		session.WithCoordinatorLogger(shared.WithLogger(r.logger, "component", "refresh")),
	)

	client, err := session.NewClient(r.config.Session.APIBaseURL, store, coordinator,
		session.WithHTTPClient(r.httpClient),
		session.WithClientLogger(r.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	return &sessionDeps{
		store:   store,
		state:   state,
		proxy:   proxy,
		intake:  session.NewIntake(proxy, store, state, r.logger),
		client:  client,
		spotify: services.NewSpotifyService(r.config.Session.APIBaseURL, client),
	}, nil
}

// resume restores a stored session or reports that login is required.
func (r *Runner) resume(ctx context.Context) (*sessionDeps, error) {
	deps, err := r.openSession(ctx)
	if err != nil {
		return nil, err
	}

	result, err := deps.intake.Start(ctx, nil)
	if err != nil {
		return nil, err
	}
	if result.View != session.ViewPlayer {
		return nil, fmt.Errorf("%w: run 'spotx login' first", shared.ErrNotAuthenticated)
	}
	return deps, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
