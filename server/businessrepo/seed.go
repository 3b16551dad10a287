package businessrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	"github.com/jrsteele09/livee-admin-console/internal/utils"
)

// SampleBusinesses returns the development data set, created relative to now.
func SampleBusinesses(now time.Time) []business.Business {
	day := 24 * time.Hour
	weekdays := func(prefix, openTime, closeTime string) []business.BusinessHours {
		hours := make([]business.BusinessHours, 0, 5)
		for d := 1; d <= 5; d++ {
			hours = append(hours, business.BusinessHours{
				ID:        fmt.Sprintf("%s-h%d", prefix, d),
				DayOfWeek: d,
				OpenTime:  openTime,
				CloseTime: closeTime,
			})
		}
		return hours
	}

	return []business.Business{
		{
			ID:           "biz-harbour-coffee",
			Name:         "Harbour Coffee",
			BusinessType: utils.Ptr("coffee_shop"),
			CreatedAt:    utils.Ptr(now.Add(-90 * day)),
			User:         business.Owner{ID: "owner-1", Email: "hello@harbourcoffee.test"},
			Branches: []business.Branch{
				{
					ID: "br-harbour-quay", BranchName: "Quayside", Status: business.StatusApproved,
					CreatedAt:     now.Add(-90 * day),
					Location:      &business.Location{ID: "loc-1", AddressDescription: "4 Quay Street"},
					BusinessHours: weekdays("br-harbour-quay", "07:00", "17:00"),
				},
				{
					ID: "br-harbour-station", BranchName: "Station Kiosk", Status: business.StatusPending, IsNewBranch: true,
					CreatedAt: now.Add(-2 * day),
					Location:  &business.Location{ID: "loc-2", AddressDescription: "Platform 1, Central Station"},
				},
			},
		},
		{
			ID:           "biz-night-market",
			Name:         "Night Market Kitchen",
			BusinessType: utils.Ptr("restaurant"),
			CreatedAt:    utils.Ptr(now.Add(-30 * day)),
			User:         business.Owner{ID: "owner-2", Email: "team@nightmarket.test"},
			Branches: []business.Branch{
				{
					ID: "br-night-market-main", BranchName: "Main Hall", Status: business.StatusPending, IsNewBranch: true,
					CreatedAt:     now.Add(-5 * day),
					BusinessHours: weekdays("br-night-market-main", "17:00", "23:00"),
				},
				{
					ID: "br-night-market-old", BranchName: "Old Pier", Status: business.StatusRejected,
					CreatedAt: now.Add(-25 * day),
					DeletedAt: utils.Ptr(now.Add(-3 * day)),
				},
			},
		},
		{
			ID:        "biz-green-fit",
			Name:      "Green Fit Studio",
			CreatedAt: utils.Ptr(now.Add(-10 * day)),
			User:      business.Owner{ID: "owner-3", Email: "owner@greenfit.test"},
			Branches: []business.Branch{
				{ID: "br-green-fit-east", BranchName: "East Side", Status: business.StatusPending, IsNewBranch: true, CreatedAt: now.Add(-day)},
			},
		},
	}
}

// Seed stores the sample businesses unless the repo already holds data.
func Seed(ctx context.Context, repo Repo, now time.Time) (int, error) {
	existing, err := repo.List(ctx, 1, 1)
	if err != nil {
		return 0, err
	}
	if existing.Pagination.TotalItems > 0 {
		return 0, nil
	}
	samples := SampleBusinesses(now)
	for i := range samples {
		if err := repo.Upsert(ctx, &samples[i]); err != nil {
			return 0, fmt.Errorf("[businessrepo Seed] %w", err)
		}
	}
	return len(samples), nil
}
