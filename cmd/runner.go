package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/freemovies/internal/services"
	"github.com/desertthunder/freemovies/internal/shared"
	"github.com/desertthunder/freemovies/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalog    services.Catalog
	api        *services.APIService
	engine     *tasks.Engine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	// openStack builds the session stack; replaced in tests.
	openStack func(ctx context.Context) (*stack, error)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    services.Catalog
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
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
		opts.HTTPClient = &http.Client{Timeout: opts.Config.OMDb.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.openStack = r.newStack
	r.useCatalog()
	return r
}

// useCatalog builds the OMDb client from the current config unless one was injected.
func (r *Runner) useCatalog() {
	if r.catalog == nil {
		svc := services.NewOMDbService(services.OMDbOptions{
			BaseURL:   r.config.OMDb.BaseURL,
			APIKey:    r.config.OMDb.APIKey,
			Client:    r.httpClient,
			CacheSize: r.config.OMDb.CacheSize,
			CacheTTL:  r.config.OMDb.CacheTTL(),
			Logger:    r.logger,
		})
		r.catalog = svc
		if r.api == nil {
			r.api = svc.API()
		}
	}
	if r.api == nil {
		r.api = services.NewAPIService(r.config.OMDb.BaseURL, r.config.OMDb.APIKey, r.httpClient)
	}
	r.engine = tasks.NewEngine(r.catalog)
}

// loadConfig reads the --config file when present, then .env and environment overrides.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if err := shared.LoadEnv(); err != nil {
		r.logger.Warn("failed to load .env", "error", err)
	}

	path := cmd.String("config")
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		config = loaded
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.config = config
	r.catalog, r.api = nil, nil
	r.httpClient = &http.Client{Timeout: config.OMDb.Timeout()}
	r.useCatalog()
	return ctx, nil
}

// SetLogger replaces the logger used by subsequently created components.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, listCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
