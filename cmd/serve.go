package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/chorusfm/chorus/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the local playback API until interrupted. A heartbeat keeps
// this device visible to siblings for as long as the server runs.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := r.ensureResolver(ctx); err != nil {
		return err
	}
	if err := r.ensureDevices(ctx); err != nil {
		return err
	}

	stop := r.registry.StartHeartbeat(ctx)
	defer stop()

	api := server.NewPlaybackAPI(r.cache, r.prefetch, r.resolver, r.registry, r.arbiter, r.relay, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(api)

	cfg := r.config.Server
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	return server.New(cfg, router, r.logger).Start(ctx)
}
