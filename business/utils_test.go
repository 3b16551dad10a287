package business_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestGracePeriod(t *testing.T) {
	deletedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		now       time.Time
		active    bool
		remaining int
	}{
		{"just deleted", deletedAt, true, 30},
		{"half a day later", deletedAt.Add(12 * time.Hour), true, 30},
		{"one day later", deletedAt.Add(24 * time.Hour), true, 29},
		{"last minute", deletedAt.Add(30*24*time.Hour - time.Minute), true, 1},
		{"expired exactly", deletedAt.Add(30 * 24 * time.Hour), false, 0},
		{"long expired", deletedAt.Add(90 * 24 * time.Hour), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.active, business.IsGracePeriodActive(deletedAt, tt.now))
			require.Equal(t, tt.remaining, business.RemainingGraceDays(deletedAt, tt.now))
		})
	}

	week := business.GracePolicy{Period: 7 * 24 * time.Hour}
	require.False(t, week.Active(deletedAt, deletedAt.Add(8*24*time.Hour)))
	require.Equal(t, 7, week.RemainingDays(deletedAt, deletedAt))
}

func TestGracePolicy_CanModerate(t *testing.T) {
	g := business.GracePolicy{}
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)
	old := now.Add(-31 * 24 * time.Hour)

	require.True(t, g.CanModerate(business.Branch{}, now))
	require.True(t, g.CanModerate(business.Branch{DeletedAt: &recent}, now))
	require.False(t, g.CanModerate(business.Branch{DeletedAt: &old}, now))
}

func TestBusinessTypeLabel(t *testing.T) {
	require.Equal(t, "Unknown", business.BusinessTypeLabel(nil))
	require.Equal(t, "Unknown", business.BusinessTypeLabel(utils.Ptr("")))
	require.Equal(t, "Coffee Shop", business.BusinessTypeLabel(utils.Ptr("coffee_shop")))
	require.Equal(t, "Restaurant", business.BusinessTypeLabel(utils.Ptr("restaurant")))
	require.Equal(t, "Food_truck", business.BusinessTypeLabel(utils.Ptr("food_truck")))
	require.Equal(t, "Other", business.BusinessTypeLabel(utils.Ptr("Other")))
}

func TestFormatBusinessHours(t *testing.T) {
	require.Equal(t, "No hours set", business.FormatBusinessHours(nil))

	hours := []business.BusinessHours{
		{DayOfWeek: 6, OpenTime: "10:00", CloseTime: "14:00"},
		{DayOfWeek: 0, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 9, OpenTime: "01:00", CloseTime: "02:00"},
	}
	require.Equal(t, "Sun: 09:00-17:00, Sat: 10:00-14:00, Day: 01:00-02:00", business.FormatBusinessHours(hours))
	require.Equal(t, 6, hours[0].DayOfWeek, "input order is kept")
}

func TestDayName(t *testing.T) {
	require.Equal(t, "Sunday", business.DayName(0))
	require.Equal(t, "Saturday", business.DayName(6))
	require.Equal(t, "Day 7", business.DayName(7))
	require.Equal(t, "Day -1", business.DayName(-1))
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "N/A", business.FormatDate(nil))
	require.Equal(t, "Mar 1, 2024", business.FormatDate(utils.Ptr(fixtureTime)))
}

func TestBranchStatusCountsAndSummary(t *testing.T) {
	deleted := fixtureTime
	branches := []business.Branch{
		{Status: business.StatusApproved},
		{Status: business.StatusApproved},
		{Status: business.StatusPending},
		{Status: business.StatusRejected, DeletedAt: &deleted},
	}

	require.Equal(t, business.StatusCounts{Approved: 2, Pending: 1, Deleted: 1}, business.CountBranchStatuses(branches))
	require.Equal(t, "2 Approved, 1 Pending", business.BranchStatusSummary(branches))
	require.Equal(t, "No branches", business.BranchStatusSummary(nil))
	require.Equal(t, "No branches", business.BranchStatusSummary(branches[3:]))
}

func TestBranchStatus_Parse(t *testing.T) {
	s, err := business.ParseBranchStatus(" approved ")
	require.NoError(t, err)
	require.Equal(t, business.StatusApproved, s)

	_, err = business.ParseBranchStatus("archived")
	require.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestBranch_JSON(t *testing.T) {
	payload := `{"id":"br-1","branchName":"Downtown","status":"Approved","isNewBranch":false,
		"createdAt":"2024-03-01T09:30:00Z","location":null,"businessHours":[],"deletedAt":null}`

	var b business.Branch
	require.NoError(t, json.Unmarshal([]byte(payload), &b))
	require.Equal(t, business.StatusApproved, b.Status)
	require.Nil(t, b.Location)
	require.False(t, b.IsDeleted())
	require.True(t, b.CreatedAt.Equal(fixtureTime))

	bad := `{"id":"br-1","status":"Archived"}`
	err := json.Unmarshal([]byte(bad), &b)
	require.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}
