package business

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/metrics"
	"github.com/jrsteele09/livee-admin-console/optimistic"
	"github.com/jrsteele09/livee-admin-console/querycache"
	"github.com/rs/zerolog"
)

const (
	DefaultPageLimit      = 10
	DefaultDashboardLimit = 500
)

// Mutation names, used in logs and metrics.
const (
	MutationUpdateBranchStatus = "update_branch_status"
	MutationDeleteBranch       = "delete_branch"
	MutationDeleteBusiness     = "delete_business"
)

// Service reads the business list through the query cache and moderates
// branches and businesses with optimistic updates of every cached page.
type Service struct {
	api         Transport
	cache       *querycache.Cache[Page]
	coordinator *optimistic.Coordinator[Page]
	now         func() time.Time
	pageLimit   int
	dashLimit   int
	log         zerolog.Logger
}

type Option func(*serviceOptions)

type serviceOptions struct {
	now       func() time.Time
	pageLimit int
	dashLimit int
	log       zerolog.Logger
	metrics   *metrics.Collectors
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *serviceOptions) {
		o.log = logger
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithNowTime overrides the clock used to stamp deleted branches.
func WithNowTime(now func() time.Time) Option {
	return func(o *serviceOptions) {
		o.now = now
	}
}

func WithPageLimit(limit int) Option {
	return func(o *serviceOptions) {
		if limit > 0 {
			o.pageLimit = limit
		}
	}
}

func WithDashboardLimit(limit int) Option {
	return func(o *serviceOptions) {
		if limit > 0 {
			o.dashLimit = limit
		}
	}
}

func NewService(api Transport, cache *querycache.Cache[Page], opts ...Option) *Service {
	o := serviceOptions{
		now:       time.Now,
		pageLimit: DefaultPageLimit,
		dashLimit: DefaultDashboardLimit,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		api:         api,
		cache:       cache,
		coordinator: optimistic.New(cache, optimistic.WithLogger(o.log), optimistic.WithMetrics(o.metrics)),
		now:         o.now,
		pageLimit:   o.pageLimit,
		dashLimit:   o.dashLimit,
		log:         o.log.With().Str("component", "business").Logger(),
	}
}

// PageKey is the cache key of one page of the business list.
func PageKey(page, limit int) querycache.Key {
	return querycache.NewKey(Resource, pageQuery(page, limit))
}

// Businesses returns one page of businesses. Page numbers start at 1; a
// non-positive limit uses the configured page size.
func (s *Service) Businesses(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageLimit
	}
	query := pageQuery(page, limit)
	return s.cache.Fetch(ctx, querycache.NewKey(Resource, query), func(ctx context.Context) (Page, error) {
		var p Page
		if err := s.api.Get(ctx, RouteBusinesses, query, &p); err != nil {
			return Page{}, apperrors.Wrapf(err, "[business.Businesses] page %d", page)
		}
		return p, nil
	})
}

// UpdateBranchStatus changes the status of one branch of businessID. The new
// status is shown in every cached page straight away and reverted if the server
// rejects it.
func (s *Service) UpdateBranchStatus(ctx context.Context, businessID string, update UpdateBranchStatus) error {
	if !update.Status.Valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidStatus, "[business.UpdateBranchStatus] %q", update.Status)
	}
	return s.coordinator.Mutate(ctx, optimistic.Mutation[Page]{
		Name:     MutationUpdateBranchStatus,
		Resource: Resource,
		Apply: func(p Page) Page {
			return WithBranchStatus(p, businessID, update)
		},
		Commit: func(ctx context.Context) error {
			return s.api.Patch(ctx, businessStatusPath(businessID), update, nil)
		},
	})
}

// DeleteBranch soft-deletes a branch. Cached copies are stamped with the local
// time until the refetch brings the server's timestamp.
func (s *Service) DeleteBranch(ctx context.Context, branchID string) error {
	deletedAt := s.now().UTC()
	return s.coordinator.Mutate(ctx, optimistic.Mutation[Page]{
		Name:     MutationDeleteBranch,
		Resource: Resource,
		Apply: func(p Page) Page {
			return WithBranchDeleted(p, branchID, deletedAt)
		},
		Commit: func(ctx context.Context) error {
			return s.api.Delete(ctx, branchPath(branchID))
		},
	})
}

func (s *Service) DeleteBusiness(ctx context.Context, businessID string) error {
	return s.coordinator.Mutate(ctx, optimistic.Mutation[Page]{
		Name:     MutationDeleteBusiness,
		Resource: Resource,
		Apply: func(p Page) Page {
			return WithoutBusiness(p, businessID)
		},
		Commit: func(ctx context.Context) error {
			return s.api.Delete(ctx, businessPath(businessID))
		},
	})
}

// Dashboard computes statistics over the first page of a large listing.
func (s *Service) Dashboard(ctx context.Context) (Stats, error) {
	p, err := s.Businesses(ctx, 1, s.dashLimit)
	if err != nil {
		return Stats{}, err
	}
	if p.Pagination.TotalItems > len(p.Data) {
		s.log.Debug().Int("total", p.Pagination.TotalItems).Int("loaded", len(p.Data)).Msg("dashboard covers a partial listing")
	}
	return ComputeStats(p.Data), nil
}

// Wait blocks until the refetches triggered by committed mutations are done.
func (s *Service) Wait() error {
	return s.cache.Wait()
}
