package business

import "time"

// The transforms below build the optimistic view of a cached page. They never
// modify their input: businesses and branches that change are copied, the rest
// are shared with the input page.

// WithBranchStatus sets the status of update.BranchID inside businessID only.
func WithBranchStatus(p Page, businessID string, update UpdateBranchStatus) Page {
	out := p
	if p.Data == nil {
		return out
	}
	out.Data = make([]Business, len(p.Data))
	for i, b := range p.Data {
		if b.ID != businessID {
			out.Data[i] = b
			continue
		}
		out.Data[i] = mapBranches(b, func(br Branch) (Branch, bool) {
			if br.ID != update.BranchID {
				return br, false
			}
			br.Status = update.Status
			return br, true
		})
	}
	return out
}

// WithBranchDeleted stamps deletedAt on branchID wherever it appears.
func WithBranchDeleted(p Page, branchID string, at time.Time) Page {
	out := p
	if p.Data == nil {
		return out
	}
	out.Data = make([]Business, len(p.Data))
	for i, b := range p.Data {
		out.Data[i] = mapBranches(b, func(br Branch) (Branch, bool) {
			if br.ID != branchID {
				return br, false
			}
			deletedAt := at
			br.DeletedAt = &deletedAt
			return br, true
		})
	}
	return out
}

// WithoutBusiness drops businessID from the page and lowers the total by one,
// never below zero. The total is lowered even when the business is on another
// page, since every page reports the same total.
func WithoutBusiness(p Page, businessID string) Page {
	out := p
	out.Pagination.TotalItems = max(0, p.Pagination.TotalItems-1)
	if p.Data == nil {
		return out
	}
	out.Data = make([]Business, 0, len(p.Data))
	for _, b := range p.Data {
		if b.ID != businessID {
			out.Data = append(out.Data, b)
		}
	}
	return out
}

func mapBranches(b Business, fn func(Branch) (Branch, bool)) Business {
	var branches []Branch
	for i, br := range b.Branches {
		next, changed := fn(br)
		if !changed {
			continue
		}
		if branches == nil {
			branches = make([]Branch, len(b.Branches))
			copy(branches, b.Branches)
		}
		branches[i] = next
	}
	if branches != nil {
		b.Branches = branches
	}
	return b
}
