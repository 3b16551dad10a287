// Package optimistic applies a mutation to cached query results before the
// server confirms it, and puts the cache back exactly as it was if the server
// rejects it.
package optimistic

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/jrsteele09/livee-admin-console/querycache"
	"github.com/rs/zerolog"
)

// Mutation describes one optimistic change to a resource family.
type Mutation[T any] struct {
	Name     string
	Resource string

	// Apply returns the optimistic value for one cached result. It must not
	// modify its argument: the argument is the value rollback restores.
	Apply func(T) T

	// Commit performs the change on the server.
	Commit func(ctx context.Context) error
}

type Coordinator[T any] struct {
	cache   *querycache.Cache[T]
	log     zerolog.Logger
	metrics *metrics.Collectors
}

type Option func(*options)

type options struct {
	log     zerolog.Logger
	metrics *metrics.Collectors
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.log = logger.With().Str("component", "optimistic").Logger()
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func New[T any](cache *querycache.Cache[T], opts ...Option) *Coordinator[T] {
	o := options{log: zerolog.Nop(), metrics: metrics.New(nil)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Coordinator[T]{cache: cache, log: o.log, metrics: o.metrics}
}

// Mutate runs m. Mutations of the same resource run one at a time: the family
// lock is held from the snapshot until the cache has been reconciled. On success
// the family is invalidated so the server's view replaces the optimistic one; on
// failure every snapshotted key is restored before the error is returned.
func (c *Coordinator[T]) Mutate(ctx context.Context, m Mutation[T]) error {
	if m.Apply == nil || m.Commit == nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[optimistic] mutation %q needs Apply and Commit", m.Name)
	}

	unlock := c.cache.Lock(m.Resource)
	defer unlock()

	c.cache.Cancel(m.Resource)

	snapshot := c.cache.Snapshot(m.Resource)
	for _, key := range snapshot.Keys() {
		previous, _ := snapshot.Data(key)
		c.cache.Set(key, m.Apply(previous))
	}

	log := c.log.With().Str("mutation", m.Name).Str("resource", m.Resource).Int("keys", snapshot.Len()).Logger()
	log.Debug().Msg("optimistic update applied")

	if err := m.Commit(ctx); err != nil {
		c.cache.Restore(snapshot)
		unlock()
		c.metrics.Mutations.WithLabelValues(m.Name, metrics.OutcomeRolledBack).Inc()
		log.Warn().Err(err).Msg("mutation failed, cache rolled back")
		return fmt.Errorf("%s: %w", m.Name, err)
	}

	unlock()
	c.metrics.Mutations.WithLabelValues(m.Name, metrics.OutcomeCommitted).Inc()
	log.Debug().Msg("mutation committed")
	c.cache.Invalidate(m.Resource)
	return nil
}
