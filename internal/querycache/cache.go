// Package querycache is the keyed store of last-known-good read results. Every
// balance, transaction page, or holding the client renders comes out of it;
// the mutation coordinator marks families of entries stale after money moves,
// and the next read refetches them. Entries carry an explicit state
// (Empty/Fresh/Stale/FetchInFlight) because correctness depends on telling
// "no data yet" apart from "old data, refresh pending".
package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// EntryState is the lifecycle position of one cache entry.
type EntryState int

const (
	// StateEmpty means no value has ever been fetched for the key.
	StateEmpty EntryState = iota
	// StateFresh means the value was fetched inside its freshness window and
	// no mutation has invalidated it.
	StateFresh
	// StateStale means the value is still readable but a mutation (or the
	// freshness window) has marked it for refetch.
	StateStale
	// StateFetchInFlight means a fetch is currently running for the key.
	StateFetchInFlight
)

func (s EntryState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateFetchInFlight:
		return "fetch_in_flight"
	default:
		return "empty"
	}
}

type entry struct {
	value     any
	hasValue  bool
	fetchedAt time.Time
	state     EntryState
	// generation invalidates in-flight fetches: a fetch that started before an
	// invalidation (or clear) must not install its result as fresh.
	generation uint64
}

// FetchFunc produces the authoritative value for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Cache is the process-wide query cache. Only the mutation coordinator and the
// session store write to it (invalidate/seed/clear); everything else reads.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	logger  *slog.Logger
	clock   func() time.Time
}

// New creates an empty cache.
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*entry),
		logger:  logger,
		clock:   time.Now,
	}
}

// Read returns the value for key, fetching when the entry is empty, stale, or
// older than window. Concurrent reads of the same key attach to one in-flight
// fetch. When a refetch fails but a previously fetched value exists, that
// value is returned alongside the error so callers can keep rendering the
// last known-good state.
func (c *Cache) Read(ctx context.Context, key Key, window time.Duration, fetch FetchFunc) (any, error) {
	ks := key.String()

	c.mu.Lock()
	e := c.lookup(ks)
	if e.state == StateFresh && c.clock().Sub(e.fetchedAt) < window {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	gen := e.generation
	hadValue := e.hasValue
	staleValue := e.value
	e.state = StateFetchInFlight
	c.mu.Unlock()

	v, err, shared := c.group.Do(ks, func() (any, error) {
		return fetch(ctx)
	})
	if shared {
		c.logger.Debug("read attached to in-flight fetch", "key", ks)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[ks]

	if err != nil {
		if ok && e.generation == gen && e.state == StateFetchInFlight {
			if e.hasValue {
				e.state = StateStale
			} else {
				e.state = StateEmpty
			}
		}
		if hadValue {
			return staleValue, err
		}
		return nil, err
	}

	if !ok || e.generation != gen {
		// Superseded by an invalidation or clear while in flight: the result
		// is returned to this caller but not installed as fresh.
		return v, nil
	}

	e.value = v
	e.hasValue = true
	e.fetchedAt = c.clock()
	e.state = StateFresh
	return v, nil
}

// ReadStale serves the entry's current value immediately when one exists,
// kicking a deduplicated background refetch for stale entries, and falls back
// to a blocking Read when the entry has never been filled.
func (c *Cache) ReadStale(ctx context.Context, key Key, window time.Duration, fetch FetchFunc) (any, error) {
	ks := key.String()

	c.mu.Lock()
	e := c.lookup(ks)
	if e.hasValue {
		v := e.value
		needsRefetch := e.state == StateStale ||
			(e.state == StateFresh && c.clock().Sub(e.fetchedAt) >= window)
		c.mu.Unlock()
		if needsRefetch {
			go func() {
				if _, err := c.Read(context.WithoutCancel(ctx), key, window, fetch); err != nil {
					c.logger.Debug("background revalidation failed", "key", ks, "error", err)
				}
			}()
		}
		return v, nil
	}
	c.mu.Unlock()

	return c.Read(ctx, key, window, fetch)
}

// Peek returns the entry's current value and state without fetching.
func (c *Cache) Peek(key Key) (any, EntryState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, StateEmpty, false
	}
	return e.value, e.state, e.hasValue
}

// State returns the entry's current state.
func (c *Cache) State(key Key) EntryState {
	_, state, _ := c.Peek(key)
	return state
}

// Invalidate marks every entry matched by any selector stale. Values are
// retained so stale-while-revalidate reads keep working. The operation is
// idempotent and commutative: invalidating the same selector twice, or two
// overlapping selectors in either order, produces the same end state.
func (c *Cache) Invalidate(selectors ...Selector) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ks, e := range c.entries {
		key := parseKey(ks)
		for _, sel := range selectors {
			if !sel.Matches(key) {
				continue
			}
			e.generation++
			if e.hasValue {
				e.state = StateStale
			} else {
				e.state = StateEmpty
			}
			// Sever the flight group: reads issued after this point must start
			// a new fetch, not attach to one that began before it.
			c.group.Forget(ks)
			break
		}
	}
}

// Write seeds the entry with an authoritative value, typically one returned by
// a mutation, so the next read does not flash stale data.
func (c *Cache) Write(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	e := c.lookup(ks)
	e.generation++
	e.value = value
	e.hasValue = true
	e.fetchedAt = c.clock()
	e.state = StateFresh
	c.group.Forget(ks)
}

// Clear discards every entry. Called on logout so the next session cannot see
// the previous user's data.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ks := range c.entries {
		c.group.Forget(ks)
	}
	c.entries = make(map[string]*entry)
}

// Len returns the number of tracked entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SetClock overrides the time source. Test hook.
func (c *Cache) SetClock(clock func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

// lookup returns the entry for ks, creating an empty one if needed.
// Caller holds c.mu.
func (c *Cache) lookup(ks string) *entry {
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{state: StateEmpty}
		c.entries[ks] = e
	}
	return e
}

// ReadAs is a typed wrapper over Cache.Read.
func ReadAs[T any](ctx context.Context, c *Cache, key Key, window time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Read(ctx, key, window, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if v == nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, err
	}
	return typed, err
}

// ReadStaleAs is a typed wrapper over Cache.ReadStale.
func ReadStaleAs[T any](ctx context.Context, c *Cache, key Key, window time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.ReadStale(ctx, key, window, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if v == nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, err
	}
	return typed, err
}
