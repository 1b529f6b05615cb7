package main

import (
	"context"
	"errors"
	"os"

	"github.com/chorusfm/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// rootCommand assembles the full CLI tree for a runner.
func rootCommand(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "chorus",
		Usage:    "Resolve playable streams and coordinate playback across devices",
		Version:  "0.3.0",
		Commands: runner.register(),
	}
}

func main() {
	shared.LoadEnv()
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	if err := rootCommand(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotSignedIn) {
			logger.Fatal("no user configured: set store.user_id in config.toml or CHORUS_USER_ID")
		}
		logger.Fatalf("application error: %v", err)
	}
}
