package optimistic_test

import (
	"context"
	"errors"
	"maps"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/jrsteele09/livee-admin-console/optimistic"
	"github.com/jrsteele09/livee-admin-console/querycache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type statuses map[string]string

const resource = "branches"

func key(page string) querycache.Key {
	return querycache.NewKey(resource, url.Values{"page": {page}})
}

func approve(id string) func(statuses) statuses {
	return func(in statuses) statuses {
		out := maps.Clone(in)
		if _, ok := out[id]; ok {
			out[id] = "Approved"
		}
		return out
	}
}

type fixture struct {
	cache       *querycache.Cache[statuses]
	coordinator *optimistic.Coordinator[statuses]
	metrics     *metrics.Collectors
	server      atomic.Value
	fetches     atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{metrics: metrics.New(prometheus.NewRegistry())}
	f.cache = querycache.New[statuses](querycache.WithMetrics(f.metrics))
	f.coordinator = optimistic.New(f.cache, optimistic.WithMetrics(f.metrics))
	f.server.Store(statuses{"b1": "Pending", "b2": "Pending"})

	for _, page := range []string{"1", "2"} {
		_, err := f.cache.Fetch(context.Background(), key(page), f.fetch)
		require.NoError(t, err)
	}
	f.fetches.Store(0)
	return f
}

func (f *fixture) fetch(context.Context) (statuses, error) {
	f.fetches.Add(1)
	return maps.Clone(f.server.Load().(statuses)), nil
}

func TestMutate_CommitAppliesThenInvalidates(t *testing.T) {
	f := newFixture(t)

	err := f.coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{
		Name:     "approve",
		Resource: resource,
		Apply:    approve("b1"),
		Commit: func(ctx context.Context) error {
			// the optimistic value is visible before the server answers
			for _, page := range []string{"1", "2"} {
				got, _ := f.cache.Get(key(page))
				require.Equal(t, "Approved", got["b1"])
			}
			f.server.Store(statuses{"b1": "Approved", "b2": "Rejected"})
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.cache.Wait())

	require.EqualValues(t, 2, f.fetches.Load(), "both pages are refetched")
	got, _ := f.cache.Get(key("1"))
	require.Equal(t, statuses{"b1": "Approved", "b2": "Rejected"}, got)
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Mutations.WithLabelValues("approve", metrics.OutcomeCommitted)))
}

func TestMutate_FailureRestoresExactly(t *testing.T) {
	f := newFixture(t)
	expected := statuses{"b1": "Pending", "b2": "Pending"}
	boom := errors.New("server said no")

	err := f.coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{
		Name:     "approve",
		Resource: resource,
		Apply:    approve("b1"),
		Commit:   func(context.Context) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "approve")
	require.NoError(t, f.cache.Wait())

	for _, page := range []string{"1", "2"} {
		got, _ := f.cache.Get(key(page))
		require.Equal(t, expected, got)
	}
	require.Zero(t, f.fetches.Load(), "a rolled back mutation does not refetch")
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Mutations.WithLabelValues("approve", metrics.OutcomeRolledBack)))
}

func TestMutate_ColdFamilySkipsApply(t *testing.T) {
	cache := querycache.New[statuses]()
	coordinator := optimistic.New(cache)
	applied := false

	err := coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{
		Name:     "approve",
		Resource: resource,
		Apply: func(s statuses) statuses {
			applied = true
			return s
		},
		Commit: func(context.Context) error { return nil },
	})
	require.NoError(t, err)
	require.False(t, applied)
	require.Empty(t, cache.Keys(resource))
}

func TestMutate_RequiresApplyAndCommit(t *testing.T) {
	f := newFixture(t)
	err := f.coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{Name: "broken", Resource: resource})
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
}

func TestMutate_CancelsInFlightReads(t *testing.T) {
	f := newFixture(t)

	started := make(chan struct{})
	finish := make(chan struct{})
	readDone := make(chan statuses, 1)
	go func() {
		got, _ := f.cache.Fetch(context.Background(), key("3"), func(ctx context.Context) (statuses, error) {
			close(started)
			<-finish
			return statuses{"b1": "Pending"}, nil
		})
		readDone <- got
	}()
	<-started

	err := f.coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{
		Name:     "approve",
		Resource: resource,
		Apply:    approve("b1"),
		Commit: func(context.Context) error {
			close(finish)
			<-readDone
			return nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.cache.Wait())

	_, stored := f.cache.Get(key("3"))
	require.False(t, stored, "the overlapping read was discarded")
}

func TestMutate_SameFamilyIsSerialised(t *testing.T) {
	f := newFixture(t)
	firstInCommit := make(chan struct{})
	releaseFirst := make(chan struct{})
	var order []string

	done := make(chan error, 2)
	go func() {
		done <- f.coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{
			Name: "first", Resource: resource, Apply: approve("b1"),
			Commit: func(context.Context) error {
				close(firstInCommit)
				<-releaseFirst
				order = append(order, "first")
				return errors.New("rejected")
			},
		})
	}()
	<-firstInCommit

	go func() {
		done <- f.coordinator.Mutate(context.Background(), optimistic.Mutation[statuses]{
			Name: "second", Resource: resource, Apply: approve("b2"),
			Commit: func(context.Context) error {
				order = append(order, "second")
				// the first mutation was rolled back before this snapshot was taken
				got, _ := f.cache.Get(key("1"))
				require.Equal(t, statuses{"b1": "Pending", "b2": "Approved"}, got)
				return nil
			},
		})
	}()

	time.Sleep(20 * time.Millisecond)
	close(releaseFirst)

	require.Error(t, <-done)
	require.NoError(t, <-done)
	require.Equal(t, []string{"first", "second"}, order)
}
