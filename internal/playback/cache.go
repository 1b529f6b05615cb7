package playback

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/models"
	"golang.org/x/sync/singleflight"
)

// StreamResolver is the slice of the resolver the cache needs.
type StreamResolver interface {
	Resolve(ctx context.Context, catalogID string, quality models.Quality) (*models.StreamDescriptor, error)
}

// Cache holds resolved descriptors for the lifetime of the player
// session. Entries are keyed by catalog id, overwritten idempotently, and
// never evicted; only a process restart invalidates them. Concurrent
// resolutions of the same id share one network race.
type Cache struct {
	resolver StreamResolver
	logger   *log.Logger

	mu      sync.RWMutex
	entries map[string]*models.StreamDescriptor
	group   singleflight.Group
}

// NewCache creates an empty resolution cache over the given resolver.
func NewCache(resolver StreamResolver, logger *log.Logger) *Cache {
	return &Cache{
		resolver: resolver,
		logger:   logger,
		entries:  make(map[string]*models.StreamDescriptor),
	}
}

// GetOrResolve returns the cached descriptor when present, otherwise
// resolves and stores it before returning. A second call with the same
// catalog id never issues a second network race.
func (c *Cache) GetOrResolve(ctx context.Context, catalogID string, quality models.Quality) (*models.StreamDescriptor, error) {
	if desc, ok := c.Peek(catalogID); ok {
		return desc, nil
	}

	val, err, _ := c.group.Do(catalogID, func() (any, error) {
		// Re-check under the flight: a racing caller may have stored it.
		if desc, ok := c.Peek(catalogID); ok {
			return desc, nil
		}
		desc, err := c.resolver.Resolve(ctx, catalogID, quality)
		if err != nil {
			return nil, err
		}
		c.Put(catalogID, desc)
		return desc, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*models.StreamDescriptor), nil
}

// Peek returns the cached descriptor without resolving.
func (c *Cache) Peek(catalogID string) (*models.StreamDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.entries[catalogID]
	return desc, ok
}

// Put stores a descriptor, overwriting any previous entry for the id.
func (c *Cache) Put(catalogID string, desc *models.StreamDescriptor) {
	c.mu.Lock()
	c.entries[catalogID] = desc
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
