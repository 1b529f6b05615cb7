package playback

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/models"
)

// prefetchGrace keeps the prefetcher out of the current track's own
// resolution traffic.
const prefetchGrace = 5 * time.Second

// Prefetcher warms the cache for the next queue entry while the current
// one plays. Fire-and-forget: no consumer ever waits on it.
type Prefetcher struct {
	cache   *Cache
	quality models.Quality
	logger  *log.Logger
	grace   time.Duration
}

// NewPrefetcher creates a prefetcher resolving at the given quality.
func NewPrefetcher(cache *Cache, quality models.Quality, logger *log.Logger) *Prefetcher {
	return &Prefetcher{cache: cache, quality: quality, logger: logger, grace: prefetchGrace}
}

// Next schedules resolution of the queue entry after currentIndex,
// wrapping to the head. Invoked once per track change. The grace period
// elapses first, and an id that is already cached is never re-resolved.
func (p *Prefetcher) Next(ctx context.Context, queue []string, currentIndex int) {
	if len(queue) == 0 || currentIndex < 0 || currentIndex >= len(queue) {
		return
	}
	nextID := queue[(currentIndex+1)%len(queue)]
	if nextID == "" {
		return
	}

	go func() {
		select {
		case <-time.After(p.grace):
		case <-ctx.Done():
			return
		}

		if _, ok := p.cache.Peek(nextID); ok {
			return
		}

		if _, err := p.cache.GetOrResolve(ctx, nextID, p.quality); err != nil {
			// Prefetch is best-effort; playback will retry on demand.
			p.logger.Debug("prefetch failed", "catalog_id", nextID, "err", err)
			return
		}
		p.logger.Debug("prefetched next track", "catalog_id", nextID)
	}()
}
