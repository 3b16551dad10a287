package businessrepo

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepo struct {
	businesses map[string]*business.Business
	order      []string
	lock       sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		businesses: make(map[string]*business.Business),
	}
}

func (r *InMemoryRepo) List(_ context.Context, page, limit int) (*business.Page, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	all := make([]business.Business, 0, len(r.order))
	for _, id := range r.order {
		b, err := clone(r.businesses[id])
		if err != nil {
			return nil, fmt.Errorf("[InMemoryRepo List] %w", err)
		}
		all = append(all, *b)
	}
	return paginate(all, page, limit), nil
}

func (r *InMemoryRepo) Get(_ context.Context, id string) (*business.Business, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	b, ok := r.businesses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBusinessNotFound, id)
	}
	return clone(b)
}

func (r *InMemoryRepo) Upsert(_ context.Context, b *business.Business) error {
	stored, err := clone(b)
	if err != nil {
		return fmt.Errorf("[InMemoryRepo Upsert] %w", err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.businesses[b.ID]; !ok {
		r.order = append(r.order, b.ID)
	}
	r.businesses[b.ID] = stored
	return nil
}

func (r *InMemoryRepo) UpdateBranchStatus(_ context.Context, businessID, branchID string, status business.BranchStatus) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	b, ok := r.businesses[businessID]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrBusinessNotFound, businessID)
	}
	return setBranchStatus(b, branchID, status)
}

func (r *InMemoryRepo) DeleteBranch(_ context.Context, branchID string, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	found := false
	for _, id := range r.order {
		if markBranchDeleted(r.businesses[id], branchID, at) {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", apperrors.ErrBranchNotFound, branchID)
	}
	return nil
}

func (r *InMemoryRepo) DeleteBusiness(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.businesses[id]; !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrBusinessNotFound, id)
	}
	delete(r.businesses, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}
