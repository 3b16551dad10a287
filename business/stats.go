package business

import (
	"cmp"
	"math"
	"slices"
)

const (
	otherCategory    = "Other"
	topCategoryCount = 5
)

type CategoryShare struct {
	Label   string
	Count   int
	Percent int
}

// Stats summarises a set of businesses for the dashboard.
type Stats struct {
	Businesses    int
	Branches      StatusCounts
	Categories    map[string]int
	TopCategories []CategoryShare
}

// ComputeStats counts branch statuses over all businesses and ranks the business
// types by their share of businesses. Businesses without a type count as
// "Other"; only the five largest shares are kept.
func ComputeStats(businesses []Business) Stats {
	s := Stats{
		Businesses: len(businesses),
		Categories: make(map[string]int),
	}
	for _, b := range businesses {
		c := CountBranchStatuses(b.Branches)
		s.Branches.Approved += c.Approved
		s.Branches.Pending += c.Pending
		s.Branches.Rejected += c.Rejected
		s.Branches.Deleted += c.Deleted

		category := otherCategory
		if b.BusinessType != nil && *b.BusinessType != "" {
			category = *b.BusinessType
		}
		s.Categories[category]++
	}

	total := max(len(businesses), 1)
	for category, count := range s.Categories {
		s.TopCategories = append(s.TopCategories, CategoryShare{
			Label:   BusinessTypeLabel(&category),
			Count:   count,
			Percent: int(math.Floor(float64(count)/float64(total)*100 + 0.5)),
		})
	}
	slices.SortFunc(s.TopCategories, func(a, b CategoryShare) int {
		if c := cmp.Compare(b.Percent, a.Percent); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if len(s.TopCategories) > topCategoryCount {
		s.TopCategories = s.TopCategories[:topCategoryCount]
	}
	return s
}
