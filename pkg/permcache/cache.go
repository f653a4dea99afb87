// Package permcache memoizes derived RBAC projections (menu trees, role lists,
// per-role grant maps) in named regions that are evicted as a whole on writes.
//
// Permission decisions are never stored here; only navigation and listing data.
package permcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Region names a group of cache entries that share an invalidation trigger
type Region string

const (
	// RegionUserMenus holds per-user readable menu trees keyed by user id
	RegionUserMenus Region = "user-menus"
	// RegionRoles holds role listings
	RegionRoles Region = "roles"
	// RegionMenus holds the full menu list and tree
	RegionMenus Region = "menus"
	// RegionRolePermissions holds grants keyed by role id
	RegionRolePermissions Region = "role-permissions"
)

// Regions lists every region a backend must support
var Regions = []Region{RegionUserMenus, RegionRoles, RegionMenus, RegionRolePermissions}

// ErrUnknownRegion is returned by backends for a region outside Regions
var ErrUnknownRegion = errors.New("unknown cache region")

// Backend stores serialized values per region
type Backend interface {
	Get(ctx context.Context, region Region, key string) ([]byte, bool, error)
	Set(ctx context.Context, region Region, key string, value []byte) error
	InvalidateRegion(ctx context.Context, region Region) error
}

// Cache fronts a Backend with fill de-duplication and a per-region
// generation counter. A fill that started before an invalidation is never
// written back, so a write followed by a read in the same process always
// observes the write.
type Cache struct {
	backend Backend
	metrics *observability.Metrics
	logger  *observability.Logger

	group singleflight.Group

	mu          sync.Mutex
	generations map[Region]uint64
}

// New creates a cache over backend. A nil backend disables caching.
func New(backend Backend, metrics *observability.Metrics, logger *observability.Logger) *Cache {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Cache{
		backend:     backend,
		metrics:     metrics,
		logger:      logger,
		generations: make(map[Region]uint64),
	}
}

func (c *Cache) generation(region Region) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[region]
}

// Invalidate evicts every entry of the given regions
func (c *Cache) Invalidate(ctx context.Context, regions ...Region) error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	for _, region := range regions {
		c.generations[region]++
	}
	c.mu.Unlock()

	if c.backend == nil {
		return nil
	}

	var errs []error
	for _, region := range regions {
		if c.metrics != nil {
			c.metrics.CacheInvalidationsTotal.WithLabelValues(string(region)).Inc()
		}
		if err := c.backend.InvalidateRegion(ctx, region); err != nil {
			errs = append(errs, fmt.Errorf("failed to invalidate region %s: %w", region, err))
		}
	}
	return errors.Join(errs...)
}

// storeIfCurrent writes value only while region is still at generation gen.
// c.mu is held across the write so an Invalidate either bumps the generation
// first (and the write is skipped) or purges after the write lands.
func (c *Cache) storeIfCurrent(ctx context.Context, region Region, gen uint64, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[region] != gen {
		return nil
	}
	return c.backend.Set(ctx, region, key, value)
}

func (c *Cache) recordHit(region Region, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHitsTotal.WithLabelValues(string(region)).Inc()
	} else {
		c.metrics.CacheMissesTotal.WithLabelValues(string(region)).Inc()
	}
}

// Load returns the cached value for region/key, calling fill on a miss.
// Backend failures are logged and degrade to calling fill directly; only
// fill errors are returned. Every caller receives its own decoded copy.
func Load[T any](ctx context.Context, c *Cache, region Region, key string, fill func(context.Context) (T, error)) (T, error) {
	var zero T
	if c == nil || c.backend == nil {
		return fill(ctx)
	}

	raw, ok, err := c.backend.Get(ctx, region, key)
	if err != nil {
		c.logger.WithError(err).WithField("region", string(region)).Warn("cache read failed")
	}
	if ok {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			c.recordHit(region, true)
			return value, nil
		}
		c.logger.WithField("region", string(region)).Warn("discarding undecodable cache entry")
	}
	c.recordHit(region, false)

	gen := c.generation(region)
	flightKey := string(region) + ":" + strconv.FormatUint(gen, 10) + ":" + key

	shared, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		value, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", err)
		}
		if err := c.storeIfCurrent(ctx, region, gen, key, encoded); err != nil {
			c.logger.WithError(err).WithField("region", string(region)).Warn("cache write failed")
		}
		return encoded, nil
	})
	if err != nil {
		return zero, err
	}

	var value T
	if err := json.Unmarshal(shared.([]byte), &value); err != nil {
		return zero, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return value, nil
}
