package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chorusfm/chorus/internal/shared"
	"github.com/chorusfm/chorus/internal/store"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlain("Edit store.url and store.user_id to enable cross-device sync.\n")
	return nil
}

// SetupDatabase initializes the local row store and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path

	r.logger.Info("initializing local store", "path", path)
	local, err := store.NewLocalStore(path, r.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize local store: %w", err)
	}
	defer local.Close()

	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ Local store ready at %s\n", path)
	return nil
}

// SetupHeaders saves a browser cURL command so mirror requests can replay
// its headers.
func (r *Runner) SetupHeaders(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidInput)
	}

	var raw []byte
	if curlFile != "" {
		data, err := os.ReadFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to read curl file: %w", err)
		}
		raw = data
	} else {
		raw = []byte(curlCmd)
	}

	// Parse up front so a bad paste fails here, not on first resolution.
	headers, err := shared.ParseCurlCommand(raw)
	if err != nil {
		return err
	}
	r.logger.Info("parsed browser headers", "count", len(headers.Headers))

	if outputPath == "" {
		outputPath = r.config.Mirrors.CurlHeadersPath
	}
	if outputPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		outputPath = filepath.Join(home, ".chorus", "headers.curl")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}

	r.logger.Info("headers saved", "path", outputPath)
	r.writePlain("✓ Browser headers saved to %s\n", outputPath)
	if r.config.Mirrors.CurlHeadersPath != outputPath {
		r.writePlain("Update config.toml with: mirrors.curl_headers_path = %q\n", outputPath)
	}
	return nil
}
