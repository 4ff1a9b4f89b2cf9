package client

import (
	"context"
	"fmt"
	"sync"

	"sharify/internal/querykeys"

	"golang.org/x/sync/singleflight"
)

// generation stamps a fetch so that a result which raced an invalidation
// is returned to its caller but never stored.
type generation struct {
	epoch  uint64
	family uint64
	key    uint64
}

// QueryCache holds the results of reads keyed by querykeys.Key. Concurrent
// reads of one key share a single request.
type QueryCache struct {
	graph *querykeys.Graph

	mu       sync.Mutex
	entries  map[string]any
	epoch    uint64
	families map[querykeys.Family]uint64
	keys     map[string]uint64

	flights singleflight.Group
}

func NewQueryCache(graph *querykeys.Graph) *QueryCache {
	if graph == nil {
		graph = querykeys.Default
	}
	return &QueryCache{
		graph:    graph,
		entries:  make(map[string]any),
		families: make(map[querykeys.Family]uint64),
		keys:     make(map[string]uint64),
	}
}

func (c *QueryCache) genLocked(k querykeys.Key) generation {
	return generation{epoch: c.epoch, family: c.families[k.Family], key: c.keys[k.String()]}
}

// Fetch returns the cached value for key or runs fetch to produce it.
func Fetch[T any](ctx context.Context, c *QueryCache, key querykeys.Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	name := key.String()

	c.mu.Lock()
	if v, ok := c.entries[name]; ok {
		c.mu.Unlock()
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		return zero, fmt.Errorf("query cache: %s holds %T", name, v)
	}
	gen := c.genLocked(key)
	c.mu.Unlock()

	flight := fmt.Sprintf("%s#%d.%d.%d", name, gen.epoch, gen.family, gen.key)
	ch := c.flights.DoChan(flight, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.genLocked(key) == gen {
			c.entries[name] = v
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("query cache: %s produced %T", name, res.Val)
		}
		return typed, nil
	}
}

// Peek returns the cached value for key without fetching.
func Peek[T any](c *QueryCache, key querykeys.Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key.String()]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Update replaces a cached value in place. It is a no-op when key is not
// cached. fn must not mutate its argument.
func Update[T any](c *QueryCache, key querykeys.Key, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := key.String()
	v, ok := c.entries[name]
	if !ok {
		return false
	}
	typed, ok := v.(T)
	if !ok {
		return false
	}
	c.entries[name] = fn(typed)
	return true
}

// Set stores value under key unconditionally.
func (c *QueryCache) Set(key querykeys.Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = value
}

// Epoch identifies the cache contents since the last Clear.
func (c *QueryCache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// SetIn stores value under key only if the cache has not been cleared since
// epoch was read.
func (c *QueryCache) SetIn(epoch uint64, key querykeys.Key, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.entries[key.String()] = value
	return true
}

// Has reports whether key is cached.
func (c *QueryCache) Has(key querykeys.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key.String()]
	return ok
}

// Invalidate drops every entry matched by keys. A whole-family key drops
// the family.
func (c *QueryCache) Invalidate(keys ...querykeys.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, target := range keys {
		if target.Whole() {
			c.families[target.Family]++
			for name := range c.entries {
				if target.Matches(querykeys.Parse(name)) {
					delete(c.entries, name)
				}
			}
			continue
		}
		name := target.String()
		c.keys[name]++
		delete(c.entries, name)
	}
}

// InvalidateChanges drops everything the graph says depends on changes and
// returns the keys it used.
func (c *QueryCache) InvalidateChanges(changes ...querykeys.Change) []querykeys.Key {
	keys := c.graph.Affected(changes...)
	c.Invalidate(keys...)
	return keys
}

// Clear drops everything. In-flight fetches will not store their results.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[string]any)
	c.keys = make(map[string]uint64)
	c.families = make(map[querykeys.Family]uint64)
}

// Len is the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
