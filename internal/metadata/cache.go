package metadata

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/danielpatrickdp/jalsathi/go-controller/internal/telemetry"
)

// Source fetches reference lists from wherever they live.
type Source interface {
	States(ctx context.Context) ([]string, error)
	Districts(ctx context.Context, state string) ([]string, error)
	Blocks(ctx context.Context, state, district string) ([]string, error)
}

type blockKey struct {
	state    string
	district string
}

// DefaultFetchTimeout bounds one shared fetch.
const DefaultFetchTimeout = 15 * time.Second

// Cache memoizes reference lists for the life of the process. Failed
// fetches are not stored, so the next call retries. Concurrent misses on
// the same key share one fetch; that fetch is detached from any single
// caller's context, so one caller giving up neither fails the others nor
// discards the result.
type Cache struct {
	src          Source
	logger       *zap.Logger
	fetchTimeout time.Duration

	mu           sync.RWMutex
	states       []string
	statesLoaded bool
	districts    map[string][]string
	blocks       map[blockKey][]string

	group singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCache wraps src. A nil logger disables logging.
func NewCache(src Source, logger *zap.Logger, opts ...CacheOption) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		src:          src,
		logger:       logger,
		fetchTimeout: DefaultFetchTimeout,
		districts:    map[string][]string{},
		blocks:       map[blockKey][]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// #region lookups
// States returns every state name.
func (c *Cache) States(ctx context.Context) ([]string, error) {
	if list, ok := c.cachedStates(); ok {
		telemetry.ObserveCacheLookup("states", true)
		return slices.Clone(list), nil
	}
	telemetry.ObserveCacheLookup("states", false)

	list, err := c.load(ctx, "states", func(fctx context.Context) ([]string, error) {
		if list, ok := c.cachedStates(); ok {
			return list, nil
		}
		list, err := c.src.States(fctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.states, c.statesLoaded = list, true
		c.mu.Unlock()
		c.logger.Debug("states cached", zap.Int("count", len(list)))
		return list, nil
	})
	if err != nil {
		c.logger.Warn("load states failed", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// Districts returns the districts of state.
func (c *Cache) Districts(ctx context.Context, state string) ([]string, error) {
	list, ok := c.cachedDistricts(state)
	telemetry.ObserveCacheLookup("districts", ok)
	if ok {
		return slices.Clone(list), nil
	}

	list, err := c.load(ctx, "districts\x00"+state, func(fctx context.Context) ([]string, error) {
		if list, ok := c.cachedDistricts(state); ok {
			return list, nil
		}
		list, err := c.src.Districts(fctx, state)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.districts[state] = list
		c.mu.Unlock()
		c.logger.Debug("districts cached", zap.String("state", state), zap.Int("count", len(list)))
		return list, nil
	})
	if err != nil {
		c.logger.Warn("load districts failed", zap.String("state", state), zap.Error(err))
		return nil, err
	}
	return list, nil
}

// Blocks returns the blocks of district within state. Entries are keyed by
// the (state, district) pair since district names repeat across states.
func (c *Cache) Blocks(ctx context.Context, state, district string) ([]string, error) {
	key := blockKey{state: state, district: district}
	list, ok := c.cachedBlocks(key)
	telemetry.ObserveCacheLookup("blocks", ok)
	if ok {
		return slices.Clone(list), nil
	}

	list, err := c.load(ctx, "blocks\x00"+state+"\x00"+district, func(fctx context.Context) ([]string, error) {
		if list, ok := c.cachedBlocks(key); ok {
			return list, nil
		}
		list, err := c.src.Blocks(fctx, state, district)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.blocks[key] = list
		c.mu.Unlock()
		c.logger.Debug("blocks cached",
			zap.String("state", state), zap.String("district", district), zap.Int("count", len(list)))
		return list, nil
	})
	if err != nil {
		c.logger.Warn("load blocks failed",
			zap.String("state", state), zap.String("district", district), zap.Error(err))
		return nil, err
	}
	return list, nil
}

// load runs fetch once per key under a context that keeps ctx's values but
// not its cancellation, bounded by fetchTimeout. Each caller still stops
// waiting when its own ctx ends.
func (c *Cache) load(ctx context.Context, key string, fetch func(context.Context) ([]string, error)) ([]string, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]string)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// #endregion lookups

func (c *Cache) cachedStates() ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states, c.statesLoaded
}

func (c *Cache) cachedDistricts(state string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list, ok := c.districts[state]
	return list, ok
}

func (c *Cache) cachedBlocks(key blockKey) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list, ok := c.blocks[key]
	return list, ok
}
