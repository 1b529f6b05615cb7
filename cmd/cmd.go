// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and local storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the local row store and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "headers",
				Usage: "Save browser headers for mirrors that block generic clients",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to file containing a cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the saved command (default: mirrors.curl_headers_path)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// resolveCommand resolves a catalog id to playable stream URLs.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a catalog id to playable stream URLs",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"Q"},
				Usage:   "Preferred quality (low, normal, high)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Resolve,
	}
}

// searchCommand searches the mirror pools for tracks.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog through the mirror pools",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Search,
	}
}

// devicesCommand handles device listing, activation, and transfer.
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "devices",
		Aliases: []string{"dev"},
		Usage:   "Manage this user's devices",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List devices seen recently",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.DevicesList,
			},
			{
				Name:   "activate",
				Usage:  "Make this device the active player",
				Action: r.DevicesActivate,
			},
			{
				Name:  "transfer",
				Usage: "Hand playback to another device",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "target",
						Aliases:  []string{"t"},
						Usage:    "Target device id",
						Required: true,
					},
				},
				Action: r.DevicesTransfer,
			},
		},
	}
}

// remoteCommand sends playback commands to another device.
func remoteCommand(r *Runner) *cli.Command {
	targetFlag := &cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "Target device id (default: the active device)",
	}

	return &cli.Command{
		Name:  "remote",
		Usage: "Remote-control the active device",
		Commands: []*cli.Command{
			{
				Name:   "play",
				Usage:  "Resume playback",
				Flags:  []cli.Flag{targetFlag},
				Action: r.RemotePlay,
			},
			{
				Name:   "pause",
				Usage:  "Pause playback",
				Flags:  []cli.Flag{targetFlag},
				Action: r.RemotePause,
			},
			{
				Name:  "seek",
				Usage: "Seek to a position in milliseconds",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "position"},
				},
				Flags:  []cli.Flag{targetFlag},
				Action: r.RemoteSeek,
			},
			{
				Name:  "volume",
				Usage: "Set volume (0.0 to 1.0)",
				Arguments: []cli.Argument{
					&cli.FloatArg{Name: "level"},
				},
				Flags:  []cli.Flag{targetFlag},
				Action: r.RemoteVolume,
			},
			{
				Name:  "skip",
				Usage: "Skip to the next or previous track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "direction"},
				},
				Flags:  []cli.Flag{targetFlag},
				Action: r.RemoteSkip,
			},
		},
	}
}

// serveCommand runs the local playback API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local playback API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive device management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive device list and remote control",
		Action:  r.TUI,
	}
}
