package business_test

import (
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	"github.com/jrsteele09/livee-admin-console/internal/utils"
)

var fixtureTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// samplePage builds a new, independent page on every call.
func samplePage() business.Page {
	return business.Page{
		Data: []business.Business{
			{
				ID:           "biz-1",
				Name:         "Corner Cafe",
				BusinessType: utils.Ptr("coffee_shop"),
				CreatedAt:    utils.Ptr(fixtureTime),
				User:         business.Owner{ID: "owner-1", Email: "cafe@example.com"},
				Branches: []business.Branch{
					{
						ID: "br-1", BranchName: "Downtown", Status: business.StatusPending, IsNewBranch: true,
						CreatedAt: fixtureTime,
						Location:  &business.Location{ID: "loc-1", AddressDescription: "1 Main St"},
						BusinessHours: []business.BusinessHours{
							{ID: "h-1", DayOfWeek: 1, OpenTime: "08:00", CloseTime: "18:00"},
							{ID: "h-2", DayOfWeek: 0, OpenTime: "09:00", CloseTime: "17:00"},
						},
					},
					{ID: "br-2", BranchName: "Harbour", Status: business.StatusApproved, CreatedAt: fixtureTime},
				},
			},
			{
				ID:           "biz-2",
				Name:         "Night Owl",
				BusinessType: utils.Ptr("bar"),
				User:         business.Owner{ID: "owner-2", Email: "bar@example.com"},
				Branches: []business.Branch{
					{ID: "br-3", BranchName: "Old Town", Status: business.StatusRejected, CreatedAt: fixtureTime},
					{ID: "br-1-copy", BranchName: "Annex", Status: business.StatusPending, CreatedAt: fixtureTime},
				},
			},
		},
		Pagination: business.Pagination{Page: 1, Limit: 10, TotalItems: 2, TotalPages: 1},
	}
}
