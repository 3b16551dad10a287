// Package querycache is a keyed cache of query results with the hooks optimistic
// mutations need: family-wide cancel, snapshot/restore, invalidation with
// background refetch and a per-family mutation lock.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultStaleTime = 5 * time.Minute

// ErrCanceled is returned by Fetch when the fetch was aborted by Cancel and there
// is no cached value to fall back to.
var ErrCanceled = errors.New("querycache: fetch canceled")

// Fetcher loads the value of one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// family is the shared state of all keys with the same resource. Everything but
// mutation is guarded by Cache.mu.
type family struct {
	mutation   sync.Mutex
	generation uint64
	mutating   int
	inflight   map[uint64]context.CancelFunc
}

type Cache[T any] struct {
	mu       sync.RWMutex
	entries  map[Key]*Entry[T]
	fetchers map[Key]Fetcher[T]
	families map[string]*family
	fetchSeq uint64
	group    *errgroup.Group

	staleTime time.Duration
	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Collectors
}

type Option func(*options)

type options struct {
	staleTime time.Duration
	now       func() time.Time
	log       zerolog.Logger
	metrics   *metrics.Collectors
}

// WithStaleTime sets how long a fetched value is served without refetching.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

// WithNowTime overrides the clock, for tests.
func WithNowTime(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.log = logger.With().Str("component", "querycache").Logger()
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func New[T any](opts ...Option) *Cache[T] {
	o := options{
		staleTime: DefaultStaleTime,
		now:       time.Now,
		log:       zerolog.Nop(),
		metrics:   metrics.New(nil),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		entries:   make(map[Key]*Entry[T]),
		fetchers:  make(map[Key]Fetcher[T]),
		families:  make(map[string]*family),
		group:     &errgroup.Group{},
		staleTime: o.staleTime,
		now:       o.now,
		log:       o.log,
		metrics:   o.metrics,
	}
}

// familyLocked must be called with mu held for writing.
func (c *Cache[T]) familyLocked(resource string) *family {
	f, ok := c.families[resource]
	if !ok {
		f = &family{inflight: make(map[uint64]context.CancelFunc)}
		c.families[resource] = f
	}
	return f
}

// Fetch returns the cached value for key while it is fresh, otherwise it runs
// fetch and stores the result. A result is only stored if no Cancel or mutation
// of the family happened while it was loading; in that case the caller gets the
// cached value (or the fetched one when the key is cold).
func (c *Cache[T]) Fetch(ctx context.Context, key Key, fetch Fetcher[T]) (T, error) {
	var zero T

	c.mu.Lock()
	c.fetchers[key] = fetch
	if e, ok := c.entries[key]; ok && !e.Stale && c.now().Sub(e.UpdatedAt) < c.staleTime {
		data := e.Data
		c.mu.Unlock()
		return data, nil
	}
	f := c.familyLocked(key.Resource)
	generation := f.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	c.fetchSeq++
	id := c.fetchSeq
	f.inflight[id] = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(f.inflight, id)
		c.mu.Unlock()
		cancel()
	}()

	data, err := fetch(fetchCtx)

	c.mu.Lock()
	defer c.mu.Unlock()

	overlapped := f.generation != generation || f.mutating > 0
	if err != nil {
		if overlapped && ctx.Err() == nil && fetchCtx.Err() != nil {
			if e, ok := c.entries[key]; ok {
				return e.Data, nil
			}
			return zero, fmt.Errorf("%w: %s: %w", ErrCanceled, key, err)
		}
		return zero, err
	}
	if overlapped {
		c.metrics.CacheDiscarded.Inc()
		c.log.Debug().Str("key", key.String()).Msg("discarding read that overlapped a cancel or mutation")
		if e, ok := c.entries[key]; ok {
			return e.Data, nil
		}
		return data, nil
	}
	c.storeLocked(key, data, false)
	return data, nil
}

// storeLocked must be called with mu held for writing.
func (c *Cache[T]) storeLocked(key Key, data T, stale bool) {
	version := uint64(1)
	if e, ok := c.entries[key]; ok {
		version = e.Version + 1
	}
	c.entries[key] = &Entry[T]{
		Key:       key,
		Data:      data,
		Version:   version,
		UpdatedAt: c.now(),
		Stale:     stale,
	}
}

func (c *Cache[T]) Get(key Key) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.Data, true
}

func (c *Cache[T]) Entry(key Key) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	return *e, true
}

// Set writes data for key and marks it fresh.
func (c *Cache[T]) Set(key Key, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, data, false)
}

// Keys lists the keys of resource that hold data, ordered by parameters.
func (c *Cache[T]) Keys(resource string) []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var keys []Key
	for k := range c.entries {
		if k.Resource == resource {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

// Snapshot copies every entry of the family that holds data.
func (c *Cache[T]) Snapshot(resource string) Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Snapshot[T]{Resource: resource, entries: make(map[Key]Entry[T])}
	for k, e := range c.entries {
		if k.Resource == resource {
			s.entries[k] = *e
		}
	}
	return s
}

// Restore writes the snapshotted data back. Data, freshness and timestamps are
// restored as they were; versions keep increasing.
func (c *Cache[T]) Restore(s Snapshot[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, saved := range s.entries {
		restored := saved
		if current, ok := c.entries[k]; ok && current.Version >= restored.Version {
			restored.Version = current.Version + 1
		}
		c.entries[k] = &restored
	}
}

// Cancel aborts every in-flight fetch of the family. Their results are dropped.
func (c *Cache[T]) Cancel(resource string) {
	c.mu.Lock()
	f := c.familyLocked(resource)
	f.generation++
	cancels := make([]context.CancelFunc, 0, len(f.inflight))
	for _, cancel := range f.inflight {
		cancels = append(cancels, cancel)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if len(cancels) > 0 {
		c.log.Debug().Str("resource", resource).Int("fetches", len(cancels)).Msg("canceled in-flight fetches")
	}
}

// Invalidate marks the family stale and refetches every key that has data in
// the background. Use Wait to block until the refetches are done.
func (c *Cache[T]) Invalidate(resource string) {
	type refetch struct {
		key   Key
		fetch Fetcher[T]
	}

	c.mu.Lock()
	var pending []refetch
	for k, e := range c.entries {
		if k.Resource != resource {
			continue
		}
		e.Stale = true
		if fetch, ok := c.fetchers[k]; ok {
			pending = append(pending, refetch{key: k, fetch: fetch})
		}
	}
	group := c.group
	c.mu.Unlock()

	for _, r := range pending {
		group.Go(func() error {
			_, err := c.Fetch(context.Background(), r.key, r.fetch)
			if err != nil {
				c.metrics.CacheRefetches.WithLabelValues(resource, metrics.OutcomeFailure).Inc()
				c.log.Warn().Err(err).Str("key", r.key.String()).Msg("background refetch failed")
				return fmt.Errorf("refetch %s: %w", r.key, err)
			}
			c.metrics.CacheRefetches.WithLabelValues(resource, metrics.OutcomeSuccess).Inc()
			return nil
		})
	}
}

// Wait blocks until the background refetches started so far have finished and
// returns the first refetch error.
func (c *Cache[T]) Wait() error {
	c.mu.Lock()
	group := c.group
	c.group = &errgroup.Group{}
	c.mu.Unlock()
	return group.Wait()
}

// Lock takes the family's mutation lock. While it is held reads of the family
// still succeed but their results are not stored. The returned function releases
// the lock and is safe to call more than once.
func (c *Cache[T]) Lock(resource string) func() {
	c.mu.Lock()
	f := c.familyLocked(resource)
	c.mu.Unlock()

	f.mutation.Lock()

	c.mu.Lock()
	f.mutating++
	f.generation++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			f.mutating--
			c.mu.Unlock()
			f.mutation.Unlock()
		})
	}
}

func sortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int {
		if c := strings.Compare(a.Resource, b.Resource); c != 0 {
			return c
		}
		return strings.Compare(a.Params, b.Params)
	})
}
