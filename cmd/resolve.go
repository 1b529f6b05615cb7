package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/chorusfm/chorus/internal/formatter"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// Resolve races the resolution tiers for a catalog id and prints the
// winning stream descriptor. Repeated resolutions of the same id are
// answered from the cache.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	catalogID := cmd.StringArg("id")
	if catalogID == "" {
		return fmt.Errorf("%w: catalog id", shared.ErrMissingArgument)
	}

	quality := r.defaultQuality()
	if q := cmd.String("quality"); q != "" {
		quality = models.Quality(q)
		if !quality.Valid() {
			return fmt.Errorf("%q: %w", q, shared.ErrInvalidQuality)
		}
	}

	if err := r.ensureResolver(ctx); err != nil {
		return err
	}

	r.logger.Info("resolving", "catalog_id", catalogID, "quality", quality)

	desc, err := r.cache.GetOrResolve(ctx, catalogID, quality)
	if errors.Is(err, shared.ErrNoStream) {
		r.writePlain("No playable stream for %s.\n", catalogID)
		return nil
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(desc, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.DescriptorToText(desc))
}

// Search queries the mirror pools and prints matching tracks.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if err := r.ensureResolver(ctx); err != nil {
		return err
	}

	results, err := r.resolver.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}
	return r.writePlain("%s", formatter.SearchResultsToText(results))
}
