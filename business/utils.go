package business

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jrsteele09/livee-admin-console/internal/utils"
)

// DefaultGracePeriod is how long a deleted branch can still be restored.
const DefaultGracePeriod = 30 * 24 * time.Hour

var businessTypeLabels = map[string]string{
	"restaurant":  "Restaurant",
	"bar":         "Bar",
	"coffee_shop": "Coffee Shop",
	"bakery":      "Bakery",
}

// DaysOfWeek is indexed by BusinessHours.DayOfWeek.
var DaysOfWeek = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// GracePolicy answers questions about soft-deleted branches.
type GracePolicy struct {
	Period time.Duration
}

func (g GracePolicy) period() time.Duration {
	if g.Period <= 0 {
		return DefaultGracePeriod
	}
	return g.Period
}

// Active is true while now is before deletedAt plus the grace period.
func (g GracePolicy) Active(deletedAt, now time.Time) bool {
	return now.Before(deletedAt.Add(g.period()))
}

// RemainingDays is the number of started days left in the grace period, 0 once
// it has passed.
func (g GracePolicy) RemainingDays(deletedAt, now time.Time) int {
	left := deletedAt.Add(g.period()).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// CanModerate reports whether a branch may still be approved, rejected or
// deleted: live branches always, deleted ones only during the grace period.
func (g GracePolicy) CanModerate(b Branch, now time.Time) bool {
	return b.DeletedAt == nil || g.Active(*b.DeletedAt, now)
}

func IsGracePeriodActive(deletedAt, now time.Time) bool {
	return GracePolicy{}.Active(deletedAt, now)
}

func RemainingGraceDays(deletedAt, now time.Time) int {
	return GracePolicy{}.RemainingDays(deletedAt, now)
}

// BusinessTypeLabel maps a business type to its display label. Unknown types
// are shown with the first letter upper-cased; a missing type is "Unknown".
func BusinessTypeLabel(businessType *string) string {
	t := utils.Value(businessType)
	if t == "" {
		return "Unknown"
	}
	if label, ok := businessTypeLabels[t]; ok {
		return label
	}
	r, size := utf8.DecodeRuneInString(t)
	return string(unicode.ToUpper(r)) + t[size:]
}

// DayName returns the weekday for 0-6 and "Day n" otherwise.
func DayName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek >= len(DaysOfWeek) {
		return fmt.Sprintf("Day %d", dayOfWeek)
	}
	return DaysOfWeek[dayOfWeek]
}

// FormatBusinessHours renders the hours ordered by day, e.g.
// "Sun: 09:00-17:00, Mon: 08:00-18:00".
func FormatBusinessHours(hours []BusinessHours) string {
	if len(hours) == 0 {
		return "No hours set"
	}
	sorted := slices.Clone(hours)
	slices.SortStableFunc(sorted, func(a, b BusinessHours) int {
		return a.DayOfWeek - b.DayOfWeek
	})

	parts := make([]string, 0, len(sorted))
	for _, h := range sorted {
		day := DayName(h.DayOfWeek)
		if len(day) > 3 {
			day = day[:3]
		}
		parts = append(parts, fmt.Sprintf("%s: %s-%s", day, h.OpenTime, h.CloseTime))
	}
	return strings.Join(parts, ", ")
}

// FormatDate renders t as "Jan 2, 2006", or "N/A" when missing.
func FormatDate(t *time.Time) string {
	if v := utils.Value(t); !v.IsZero() {
		return v.Format("Jan 2, 2006")
	}
	return "N/A"
}

type StatusCounts struct {
	Approved int
	Pending  int
	Rejected int
	Deleted  int
}

// CountBranchStatuses counts live branches by status. Deleted branches are only
// counted as Deleted.
func CountBranchStatuses(branches []Branch) StatusCounts {
	var c StatusCounts
	for _, b := range branches {
		if b.IsDeleted() {
			c.Deleted++
			continue
		}
		switch b.Status {
		case StatusApproved:
			c.Approved++
		case StatusPending:
			c.Pending++
		case StatusRejected:
			c.Rejected++
		}
	}
	return c
}

// BranchStatusSummary renders e.g. "2 Approved, 1 Pending", or "No branches".
func BranchStatusSummary(branches []Branch) string {
	c := CountBranchStatuses(branches)
	var parts []string
	if c.Approved > 0 {
		parts = append(parts, fmt.Sprintf("%d Approved", c.Approved))
	}
	if c.Pending > 0 {
		parts = append(parts, fmt.Sprintf("%d Pending", c.Pending))
	}
	if c.Rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d Rejected", c.Rejected))
	}
	if len(parts) == 0 {
		return "No branches"
	}
	return strings.Join(parts, ", ")
}
