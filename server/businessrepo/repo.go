// Package businessrepo stores the dev server's businesses, in memory or in SQLite.
package businessrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

type Repo interface {
	// List returns one page in insertion order. Pages past the end are empty.
	List(ctx context.Context, page, limit int) (*business.Page, error)
	Get(ctx context.Context, id string) (*business.Business, error)
	Upsert(ctx context.Context, b *business.Business) error
	UpdateBranchStatus(ctx context.Context, businessID, branchID string, status business.BranchStatus) error
	// DeleteBranch stamps deletedAt on the branch; the row is kept for the grace period.
	DeleteBranch(ctx context.Context, branchID string, at time.Time) error
	DeleteBusiness(ctx context.Context, id string) error
}

func paginate(all []business.Business, page, limit int) *business.Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	total := len(all)
	start, ok := pageOffset(page, limit, total)
	if !ok {
		start = total
	}
	end := min(start+limit, total)

	data := make([]business.Business, end-start)
	copy(data, all[start:end])
	return newPage(data, page, limit, total)
}

func newPage(data []business.Business, page, limit, total int) *business.Page {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return &business.Page{
		Data: data,
		Pagination: business.Pagination{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}
}

// pageOffset returns the index of the first item of page. ok is false when the
// page starts past the last item; the product is never computed then, so huge
// page numbers cannot overflow.
func pageOffset(page, limit, total int) (int, bool) {
	if page-1 > total/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}

func setBranchStatus(b *business.Business, branchID string, status business.BranchStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
	}
	for i := range b.Branches {
		if b.Branches[i].ID == branchID {
			b.Branches[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s", apperrors.ErrBranchNotFound, branchID)
}

func markBranchDeleted(b *business.Business, branchID string, at time.Time) bool {
	found := false
	for i := range b.Branches {
		if b.Branches[i].ID == branchID {
			ts := at
			b.Branches[i].DeletedAt = &ts
			found = true
		}
	}
	return found
}

// clone deep copies b so callers never share slices with the store.
func clone(b *business.Business) (*business.Business, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var out business.Business
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
