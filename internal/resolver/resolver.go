package resolver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/mirrors"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/shared"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Race concurrency per tier. Stream races stay small; search fans out
	// wider because search endpoints fail more often.
	streamRaceSizeA = 5
	streamRaceSizeB = 3
	searchRaceSizeA = 8
	searchRaceSizeB = 3

	streamDeadline = 5 * time.Second
	searchDeadline = 10 * time.Second

	searchCacheSize = 128
)

// Provenance tier ids recorded on resolved descriptors.
const (
	TierExtractor = "tier0"
	TierPoolA     = "tier1"
	TierPoolB     = "tier2"
)

// Resolver races mirror providers under tiered fallback and normalizes the
// winner into a stream descriptor.
type Resolver struct {
	registry  *mirrors.Registry
	client    *mirrorClient
	extractor Extractor
	logger    *log.Logger

	searchCache *lru.Cache[string, []models.SearchResult]
}

// New creates a Resolver. extractor may be nil, in which case tier 0 is
// skipped. httpClient defaults to [http.DefaultClient].
func New(registry *mirrors.Registry, extractor Extractor, httpClient *http.Client, logger *log.Logger) (*Resolver, error) {
	cache, err := lru.New[string, []models.SearchResult](searchCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create search cache: %w", err)
	}
	return &Resolver{
		registry:    registry,
		client:      newMirrorClient(registry, httpClient),
		extractor:   extractor,
		logger:      logger,
		searchCache: cache,
	}, nil
}

// Resolve returns the best available stream descriptor for a catalog id,
// or [shared.ErrNoStream] when every tier is exhausted. Exhaustion is a
// normal empty result, not a failure of the resolver.
func (r *Resolver) Resolve(ctx context.Context, catalogID string, quality models.Quality) (*models.StreamDescriptor, error) {
	if catalogID == "" {
		return nil, fmt.Errorf("catalog id: %w", shared.ErrMissingArgument)
	}
	if quality == "" {
		quality = models.QualityNormal
	}
	if !quality.Valid() {
		return nil, fmt.Errorf("%q: %w", quality, shared.ErrInvalidQuality)
	}

	if r.extractor != nil {
		formats, err := r.extractor.Extract(ctx, catalogID)
		if err == nil && len(formats) > 0 {
			desc := selectFormats(formats, quality, TierExtractor)
			if !desc.Empty() {
				return &desc, nil
			}
		}
		if err != nil {
			r.logger.Warn("tier 0 extraction failed, escalating", "catalog_id", catalogID, "err", err)
		}
	}

	if desc, ok := r.raceStreams(ctx, r.registry.PoolA(), streamRaceSizeA, catalogID, quality, TierPoolA); ok {
		return desc, nil
	}
	if desc, ok := r.raceStreams(ctx, r.registry.PoolB(), streamRaceSizeB, catalogID, quality, TierPoolB); ok {
		return desc, nil
	}

	r.logger.Debug("all tiers exhausted", "catalog_id", catalogID)
	return nil, fmt.Errorf("%s: %w", catalogID, shared.ErrNoStream)
}

// raceStreams races up to size instances of a shuffled pool for one tier.
func (r *Resolver) raceStreams(ctx context.Context, pool []string, size int, catalogID string, quality models.Quality, tier string) (*models.StreamDescriptor, bool) {
	if size > len(pool) {
		size = len(pool)
	}

	candidates := make([]func(context.Context) (models.StreamDescriptor, error), 0, size)
	for i := 0; i < size; i++ {
		base := pool[i]
		kind := profileFor(i)
		candidates = append(candidates, func(cctx context.Context) (models.StreamDescriptor, error) {
			var formats []models.StreamFormat
			var err error
			if tier == TierPoolB {
				formats, err = r.client.StreamsPoolB(cctx, base, catalogID, kind)
			} else {
				formats, err = r.client.StreamsPoolA(cctx, base, catalogID, kind)
			}
			if err != nil {
				return models.StreamDescriptor{}, err
			}
			desc := selectFormats(formats, quality, tier)
			if desc.Empty() {
				return models.StreamDescriptor{}, fmt.Errorf("no usable formats: %w", shared.ErrTierExhausted)
			}
			return desc, nil
		})
	}

	desc, ok := raceFirst(ctx, streamDeadline, candidates)
	if !ok {
		return nil, false
	}
	return &desc, true
}

// Search races mirror search endpoints for a free-text query. Results are
// cached in an LRU keyed by query; total failure yields an empty slice.
func (r *Resolver) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query: %w", shared.ErrMissingArgument)
	}
	if cached, ok := r.searchCache.Get(query); ok {
		return cached, nil
	}

	if results, ok := r.raceSearch(ctx, r.registry.PoolA(), searchRaceSizeA, query, TierPoolA); ok {
		r.searchCache.Add(query, results)
		return results, nil
	}
	if results, ok := r.raceSearch(ctx, r.registry.PoolB(), searchRaceSizeB, query, TierPoolB); ok {
		r.searchCache.Add(query, results)
		return results, nil
	}

	r.logger.Debug("search exhausted all tiers", "query", query)
	return []models.SearchResult{}, nil
}

func (r *Resolver) raceSearch(ctx context.Context, pool []string, size int, query, tier string) ([]models.SearchResult, bool) {
	if size > len(pool) {
		size = len(pool)
	}

	candidates := make([]func(context.Context) ([]models.SearchResult, error), 0, size)
	for i := 0; i < size; i++ {
		base := pool[i]
		kind := profileFor(i)
		candidates = append(candidates, func(cctx context.Context) ([]models.SearchResult, error) {
			if tier == TierPoolB {
				return r.client.SearchPoolB(cctx, base, query, kind)
			}
			return r.client.SearchPoolA(cctx, base, query, kind)
		})
	}

	return raceFirst(ctx, searchDeadline, candidates)
}
