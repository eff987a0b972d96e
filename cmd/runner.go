package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdrop/internal/services"
	"github.com/desertthunder/songdrop/internal/shared"
	"github.com/desertthunder/songdrop/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.APIService
	client     services.Client
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	uploader   *tasks.Uploader

	clientInjected bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	API        *services.APIService
	Client     services.Client // defaults to API
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
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(services.DefaultServerURL, opts.HTTPClient)
	}
	injected := opts.Client != nil
	if !injected {
		opts.Client = opts.API
	}

	return &Runner{
		config:     opts.Config,
		api:        opts.API,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		uploader:   tasks.NewUploader(opts.Client),

		clientInjected: injected,
	}
}

// Before points the client at the server named by the global --server flag.
//
// A client injected through [RunnerOpts.Client] is left alone.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	server := cmd.String("server")
	if server == "" || server == r.api.BaseURL() {
		return ctx, nil
	}
	r.SetServer(server)
	return ctx, nil
}

// SetServer replaces the API client with one for baseURL.
func (r *Runner) SetServer(baseURL string) {
	r.api = services.NewAPIService(baseURL, r.httpClient)
	if !r.clientInjected {
		r.client = r.api
		r.uploader = tasks.NewUploader(r.client)
	}
	r.logger.Debug("using server", "url", r.api.BaseURL())
}

// SetLogger replaces the logger used by command actions.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, songsCommand, uploadCommand, importCommand, healthCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
