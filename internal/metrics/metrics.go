// Package metrics holds the Prometheus collectors shared by the request client,
// the query cache and the mutation coordinator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "livee_console"

// Mutation outcomes
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
)

type Collectors struct {
	Requests       *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	QueuedRequests prometheus.Counter
	Mutations      *prometheus.CounterVec
	CacheRefetches *prometheus.CounterVec
	CacheDiscarded prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests issued by the API clients, by client and status class.",
		}, []string{"client", "class"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		QueuedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_queued_requests_total",
			Help:      "Requests that waited behind an in-flight token refresh.",
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimistic_mutations_total",
			Help:      "Optimistic mutations by name and outcome.",
		}, []string{"mutation", "outcome"}),
		CacheRefetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_refetches_total",
			Help:      "Background refetches after invalidation, by resource and outcome.",
		}, []string{"resource", "outcome"}),
		CacheDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_discarded_reads_total",
			Help:      "Read results dropped because a cancel or mutation overlapped them.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.Requests, c.Refreshes, c.QueuedRequests, c.Mutations, c.CacheRefetches, c.CacheDiscarded)
	}
	return c
}

// StatusClass buckets an HTTP status code ("2xx", "4xx", ...); 0 means a transport error.
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
