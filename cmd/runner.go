package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/devices"
	"github.com/chorusfm/chorus/internal/mirrors"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/playback"
	"github.com/chorusfm/chorus/internal/resolver"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store, device registry, and resolver are built on first use so that
// commands which never touch the network (setup, help) stay cheap.
type Runner struct {
	config     *shared.Config
	rowStore   store.Store
	registry   *devices.Registry
	arbiter    *devices.Arbiter
	relay      *devices.Relay
	resolver   *resolver.Resolver
	cache      *playback.Cache
	prefetch   *playback.Prefetcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Store      store.Store
	Resolver   *resolver.Resolver
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

	return &Runner{
		config:     opts.Config,
		rowStore:   opts.Store,
		resolver:   opts.Resolver,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to a file logger while a TUI
// owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// ensureStore opens the shared row store: the configured sync backend when
// store.url is set, the local sqlite store otherwise.
func (r *Runner) ensureStore() (store.Store, error) {
	if r.rowStore != nil {
		return r.rowStore, nil
	}

	if r.config.Store.URL != "" {
		r.logger.Debug("using sync backend", "url", r.config.Store.URL)
		r.rowStore = store.NewRESTStore(r.config.Store.URL, r.config.Store.APIKey, r.httpClient, r.logger)
		return r.rowStore, nil
	}

	r.logger.Debug("no sync backend configured, using local store", "path", r.config.Database.Path)
	local, err := store.NewLocalStore(r.config.Database.Path, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	r.rowStore = local
	return r.rowStore, nil
}

// ensureDevices builds the registry, arbiter, and relay, and registers
// this installation.
func (r *Runner) ensureDevices(ctx context.Context) error {
	if r.registry != nil {
		return nil
	}

	st, err := r.ensureStore()
	if err != nil {
		return err
	}

	install, err := devices.NewInstallationID(r.config.Device.IDPath)
	if err != nil {
		return err
	}

	identity := devices.StaticIdentity{User: models.User{ID: r.config.Store.UserID}}
	registry := devices.NewRegistry(st, identity, install, r.config.Device.Name, r.config.Device.Type, r.logger)
	if err := registry.Register(ctx); err != nil {
		return err
	}

	r.registry = registry
	r.arbiter = devices.NewArbiter(st, registry, r.logger)
	r.relay = devices.NewRelay(st, r.logger)
	return nil
}

// ensureResolver builds the mirror registry, the optional extractor tier,
// and the resolution cache with its prefetcher.
func (r *Runner) ensureResolver(ctx context.Context) error {
	if r.resolver == nil {
		registry, err := mirrors.NewRegistry(r.config.Mirrors)
		if err != nil {
			return err
		}

		var extractor resolver.Extractor
		if r.config.Resolver.Extractor {
			ext, err := resolver.NewYTDLPExtractor(ctx)
			if err != nil {
				r.logger.Warn("extractor unavailable, racing mirrors only", "err", err)
			} else {
				extractor = ext
			}
		}

		res, err := resolver.New(registry, extractor, r.httpClient, r.logger)
		if err != nil {
			return err
		}
		r.resolver = res
	}

	if r.cache == nil {
		r.cache = playback.NewCache(r.resolver, r.logger)
		r.prefetch = playback.NewPrefetcher(r.cache, r.defaultQuality(), r.logger)
	}
	return nil
}

func (r *Runner) defaultQuality() models.Quality {
	q := models.Quality(r.config.Resolver.DefaultQuality)
	if !q.Valid() {
		return models.QualityNormal
	}
	return q
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, resolveCommand, searchCommand, devicesCommand, remoteCommand, serveCommand, tuiCommand,
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
